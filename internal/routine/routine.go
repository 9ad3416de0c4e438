package routine

import (
	"sync"
	"time"
)

// IntervalMode selects how the next capture's timing is derived (§3, §4.1).
type IntervalMode int

// Recognized interval modes.
const (
	IntervalCaptureStart IntervalMode = iota
	IntervalCaptureEnd
)

// Stop reasons, set the first time their corresponding termination
// predicate fires (§4.1 step 2).
const (
	StopReasonNone      = ""
	StopReasonSignal    = "stop signal"
	StopReasonNumber    = "number limit"
	StopReasonTime      = "time limit"
	StopReasonSchedule  = "schedule exhausted"
)

// WorkItem is one entry on the capture work-queue: either a capture
// request, or — once the Routine is complete — a sentinel the capture
// worker uses to know to drain and exit (§4.1 step 2).
type WorkItem struct {
	Setting  Setting
	Auto     bool
	Sentinel bool
}

// Params configures an Engine's lifecycle bounds (§3 Routine).
type Params struct {
	Name           string
	InitialDelay   time.Duration
	NumberLimit    int // already clamped to <= 5000 by the caller/parser
	TimeLimit      time.Duration // already clamped to <= 96h by the caller/parser
	RepeatInterval time.Duration
	IntervalMode   IntervalMode
	Interval       time.Duration
	MinTickLength  time.Duration
	Schedule       []Setting
}

// Engine is the Routine tick state machine (§4.1). Its mutable fields are
// guarded by mu since they are read by the Supervisor and written by both
// Tick and the capture worker's completion callbacks (§5).
type Engine struct {
	Params

	mu            sync.Mutex
	started       bool
	startTime     time.Time
	nextCaptureAt time.Time
	imageCount    int
	complete      bool
	stopSignal    bool
	stopReason    string
	capturing     bool
	baseLength    int
}

// New constructs an Engine from Params. baseLength is the length of one
// un-repeated pass through the schedule, used by AdvanceNextCapture to
// detect repeat boundaries; callers that built the schedule via
// BuildScheduleWithBase should pass the base length it returned.
func New(p Params, baseLength int) *Engine {
	if baseLength <= 0 {
		baseLength = len(p.Schedule)
	}
	return &Engine{Params: p, baseLength: baseLength}
}

// Snapshot is a read-only copy of the Engine's runtime state, used by the
// Supervisor's periodic status frame (§4.5) without holding the Engine's
// lock across a FIFO write.
type Snapshot struct {
	ImageCount int
	Complete   bool
	StopSignal bool
	StopReason string
	Capturing  bool
	StartTime  time.Time
}

// Snapshot returns the current runtime state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		ImageCount: e.imageCount,
		Complete:   e.complete,
		StopSignal: e.stopSignal,
		StopReason: e.stopReason,
		Capturing:  e.capturing,
		StartTime:  e.startTime,
	}
}

// RequestStop sets the stop signal, the cooperative-stop path triggered by
// the inbound "STOP" FIFO message (§4.5, §5).
func (e *Engine) RequestStop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopSignal = true
}

// Tick is the non-blocking state transition called by the Supervisor at
// ≥100Hz (§4.1). It evaluates the termination predicates in order, enqueues
// the next capture request if one is due, and sleeps for any remainder of
// MinTickLength to cap CPU use. It never blocks on capture or disk I/O: the
// only suspension point is that bounded trailing sleep (§5).
func (e *Engine) Tick(now time.Time, queue chan<- WorkItem) {
	tickStart := time.Now()
	e.mu.Lock()

	if !e.started {
		e.started = true
		e.startTime = now
		e.nextCaptureAt = now.Add(e.InitialDelay)
	}

	if !e.complete {
		switch {
		case e.stopSignal && !e.capturing:
			e.setStopReason(StopReasonSignal)
			e.complete = true
		case e.NumberLimit > 0 && e.imageCount >= e.NumberLimit:
			e.setStopReason(StopReasonNumber)
			e.stopSignal = true
			e.complete = !e.capturing
		case e.TimeLimit > 0 && now.Sub(e.startTime) >= e.TimeLimit:
			e.setStopReason(StopReasonTime)
			e.stopSignal = true
			e.complete = !e.capturing
		case e.imageCount >= len(e.Schedule):
			e.setStopReason(StopReasonSchedule)
			e.stopSignal = true
			e.complete = !e.capturing
		}
	}

	if e.complete {
		e.mu.Unlock()
		select {
		case queue <- WorkItem{Sentinel: true}:
		default:
		}
		sleepRemainder(tickStart, e.MinTickLength)
		return
	}

	if !now.Before(e.nextCaptureAt) && !e.capturing && !e.stopSignal {
		setting := e.Schedule[e.imageCount]
		auto := setting.IntegrationTime == 0
		item := WorkItem{Setting: setting, Auto: auto}
		select {
		case queue <- item:
			e.capturing = true
		default:
			// Queue full (should only happen transiently); try again next tick.
		}
	}

	e.mu.Unlock()
	sleepRemainder(tickStart, e.MinTickLength)
}

// setStopReason records the first termination predicate to fire, per
// §4.1's "each setting stop_reason the first time it fires". Must be
// called with mu held.
func (e *Engine) setStopReason(reason string) {
	if e.stopReason == StopReasonNone {
		e.stopReason = reason
	}
}

func sleepRemainder(tickStart time.Time, minTickLength time.Duration) {
	remaining := minTickLength - time.Since(tickStart)
	if remaining > 0 {
		time.Sleep(remaining)
	}
}

// CaptureCompleted is called by the capture worker when a capture request
// completes, successfully or not (§4.1 AdvanceNextCapture). persisted
// indicates whether the resulting Frame actually made it into the Session,
// since image_count only increments for frames that were persisted (§4.1
// failure semantics).
func (e *Engine) CaptureCompleted(now time.Time, persisted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.capturing = false

	crossedBoundary := false
	if persisted {
		prevCount := e.imageCount
		e.imageCount++
		if e.baseLength > 0 && e.imageCount/e.baseLength != prevCount/e.baseLength {
			crossedBoundary = true
		}
	}

	switch e.IntervalMode {
	case IntervalCaptureEnd:
		e.nextCaptureAt = now.Add(e.Interval)
	case IntervalCaptureStart:
		e.nextCaptureAt = e.nextCaptureAt.Add(e.Interval)
	}
	if crossedBoundary {
		e.nextCaptureAt = e.nextCaptureAt.Add(e.RepeatInterval)
	}
}

// StopReason returns the recorded termination reason, or StopReasonNone if
// the Engine hasn't stopped.
func (e *Engine) StopReason() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopReason
}
