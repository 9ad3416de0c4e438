// Package tlog is the supervisor's logging sink: a thin wrapper around the
// standard log.Logger, matching periph's own habit of a package-level
// *log.Logger with a verbosity switch (see devices/bmxx80, cmd/periph-info).
// Its one addition is Sink: a supervisor starts logging before a Session
// directory exists, so early lines are buffered in memory and flushed once
// a file destination is available.
package tlog

import (
	"bytes"
	"io"
	"log"
	"os"
	"sync"
)

// Sink is a log.Logger output destination that starts as an in-memory ring
// buffer and can be switched, once, to a file — replaying everything
// buffered so far. Before a Session directory exists there is nowhere to
// write a log file, but messages (sensor connect failures, config
// resolution) still need to be captured rather than silently dropped.
type Sink struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	file     *os.File
	capacity int // buffer cap in bytes before the oldest bytes are dropped
}

// NewSink returns a Sink buffering up to capacity bytes in memory. A
// capacity of 0 selects a 64KiB default.
func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = 64 * 1024
	}
	return &Sink{capacity: capacity}
}

// Write implements io.Writer, satisfying log.Logger's output requirement.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file.Write(p)
	}
	n, err := s.buf.Write(p)
	if s.buf.Len() > s.capacity {
		// Drop the oldest bytes (which may cut the oldest kept line
		// short), keeping the tail: a crash loop with an
		// unreachable Session directory should not grow without bound.
		excess := s.buf.Len() - s.capacity
		s.buf.Next(excess)
	}
	return n, err
}

// SwitchToFile flushes anything buffered so far to f and routes all
// subsequent writes directly to f. It may be called only once; a second
// call is a programming error and returns errAlreadySwitched.
func (s *Sink) SwitchToFile(f *os.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return errAlreadySwitched
	}
	if s.buf.Len() > 0 {
		if _, err := f.Write(s.buf.Bytes()); err != nil {
			return err
		}
		s.buf.Reset()
	}
	s.file = f
	return nil
}

var errAlreadySwitched = sinkError("tlog: sink already switched to a file")

type sinkError string

func (e sinkError) Error() string { return string(e) }

// Logger wraps a *log.Logger over a Sink, adding a Verbose gate the way
// periph's drivers gate debug output on a -v flag.
type Logger struct {
	sink    *Sink
	std     *log.Logger
	mu      sync.Mutex
	verbose bool
}

// New returns a Logger writing through sink, tagged with prefix.
func New(sink *Sink, prefix string) *Logger {
	return &Logger{sink: sink, std: log.New(sink, prefix, log.LstdFlags|log.Lmicroseconds)}
}

// SetVerbose toggles whether Debugf lines are emitted.
func (l *Logger) SetVerbose(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = v
}

// Sink returns the underlying Sink so a caller can SwitchToFile once a
// Session directory is available.
func (l *Logger) Sink() *Sink { return l.sink }

// Infof logs an informational line unconditionally.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.std.Printf(format, args...)
}

// Warnf logs a warning line unconditionally (§7 kind 3: recoverable sensor
// read failures are logged, not escalated).
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf("WARN "+format, args...)
}

// Errorf logs an error line unconditionally.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Printf("ERROR "+format, args...)
}

// Debugf logs only when verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.mu.Lock()
	v := l.verbose
	l.mu.Unlock()
	if !v {
		return
	}
	l.std.Printf("DEBUG "+format, args...)
}

// Discard returns a Logger that drops everything, useful in tests that
// don't want log noise but still need a non-nil *Logger.
func Discard() *Logger {
	return New(&Sink{file: nil}, "")
}

var _ io.Writer = (*Sink)(nil)
