package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/ru-wallace/triton/internal/frame"
	"github.com/ru-wallace/triton/internal/tlog"
)

// queueCapacity is the bounded inbound queue's capacity (§4.4): once full,
// Enqueue blocks the capture worker until the consumer drains, which is the
// mechanism that limits capture rate under slow storage.
const queueCapacity = 8

// Recorder is the single-producer/single-consumer SessionRecorder
// pipeline (§4.4): one persistence worker goroutine drains queue, applying
// the six-step best-effort-per-field write for each Frame.
type Recorder struct {
	sess   *Session
	log    *tlog.Logger
	queue  chan *frame.Frame
	csv    *csvWriter
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewRecorder wraps sess with a persistence pipeline. Call Start before the
// first Enqueue.
func NewRecorder(sess *Session, log *tlog.Logger) *Recorder {
	if log == nil {
		log = tlog.Discard()
	}
	return &Recorder{
		sess:  sess,
		log:   log,
		queue: make(chan *frame.Frame, queueCapacity),
		csv:   newCSVWriter(sess.CSVPath),
	}
}

// Start launches the persistence worker goroutine.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go r.run()
}

// Enqueue hands a completed Frame to the persistence pipeline, blocking if
// the queue is full (§4.4 backpressure). It returns an error if the
// Recorder has already been stopped.
func (r *Recorder) Enqueue(f *frame.Frame) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return errRecorderStopped
	}
	r.queue <- f
	return nil
}

// QueueSize reports how many Frames are currently queued, used by the
// Supervisor's periodic status frame (§4.5 "Image Save Queue Size").
func (r *Recorder) QueueSize() int { return len(r.queue) }

// Stop drains and closes the queue, waiting for every already-enqueued
// Frame to finish persisting (§4.4 stop_processing_queue). The Supervisor
// calls this once the Routine reports complete, before exiting.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	close(r.queue)
	r.wg.Wait()
}

var errRecorderStopped = fmt.Errorf("session: recorder already stopped")

func (r *Recorder) run() {
	defer r.wg.Done()
	for f := range r.queue {
		r.processOne(f)
	}
}

// processOne performs the six-step per-frame write of §4.4. Each step is
// independently guarded: a failure in one is logged and accumulated via
// go-multierror, but every other step is still attempted — persistence is
// best-effort per field, never best-effort per frame.
func (r *Recorder) processOne(f *frame.Frame) {
	var errs *multierror.Error

	imageNumber := r.sess.ImageCount() + 1
	info := f.Info(imageNumber)
	r.sess.Images = append(r.sess.Images, info)
	r.sess.LastUpdated = time.Now()

	if err := upsertSessionList(r.sess); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("session_list.json: %w", err))
	}

	if err := r.saveImage(f, imageNumber, info); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("image png: %w", err))
	}

	if err := r.sess.writeJSON(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("session.json: %w", err))
	}

	keys := frame.InfoKeys()
	values := f.InfoOrdered(imageNumber)
	mismatch, err := r.csv.Append(keys, values)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("data.csv: %w", err))
	}
	if mismatch {
		r.log.Warnf("session: frame %d introduced new info keys; csv row truncated to the established schema", imageNumber)
	}

	if errs != nil {
		r.log.Errorf("session: partial persistence failure for frame %d: %v", imageNumber, errs)
		return
	}
	r.log.Infof("session: persisted frame %d", imageNumber)
}

func (r *Recorder) saveImage(f *frame.Frame, imageNumber int, info map[string]string) error {
	img, err := frameToImage(f)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s_%03d.png", r.sess.NameNoSpaces, imageNumber)
	path := filepath.Join(r.sess.ImageDir, name)
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	metadata := make(map[string]string, len(info)+1)
	for k, v := range info {
		metadata[k] = v
	}
	metadata["session"] = r.sess.Name
	return EncodeWithText(out, img, metadata)
}
