package routine

import (
	"testing"
	"time"
)

func newTestEngine(numberLimit int, timeLimit time.Duration, schedLen int) *Engine {
	sched := make([]Setting, schedLen)
	for i := range sched {
		sched[i] = Setting{IntegrationTime: 100000, Gain: 1}
	}
	return New(Params{
		Name:          "test",
		NumberLimit:   numberLimit,
		TimeLimit:     timeLimit,
		IntervalMode:  IntervalCaptureEnd,
		MinTickLength: 0,
		Schedule:      sched,
	}, schedLen)
}

func TestNumberLimitStopsAtThree(t *testing.T) {
	// Scenario 3: number_limit 3, time_limit huge -> exactly 3 captures,
	// stop_reason "number limit".
	e := newTestEngine(3, 1000000*time.Second, 1000)
	queue := make(chan WorkItem, 1)
	now := time.Now()

	captured := 0
	for i := 0; i < 50 && captured < 3; i++ {
		e.Tick(now, queue)
		select {
		case item := <-queue:
			if item.Sentinel {
				t.Fatal("unexpected sentinel before reaching number limit")
			}
			captured++
			now = now.Add(time.Millisecond)
			e.CaptureCompleted(now, true)
		default:
		}
		now = now.Add(time.Millisecond)
	}
	if captured != 3 {
		t.Fatalf("captured %d, want 3", captured)
	}
	e.Tick(now, queue)
	if got := e.StopReason(); got != StopReasonNumber {
		t.Fatalf("stop reason = %q, want %q", got, StopReasonNumber)
	}
	if !e.Snapshot().Complete {
		t.Fatal("expected engine to be complete")
	}
}

func TestTimeLimitStopsEarly(t *testing.T) {
	// Scenario 4: time_limit very short -> fewer captures than number_limit,
	// stop_reason "time limit".
	e := newTestEngine(1000, 2*time.Millisecond, 1000)
	queue := make(chan WorkItem, 1)
	now := time.Now()

	captured := 0
	deadline := now.Add(50 * time.Millisecond)
	for now.Before(deadline) {
		e.Tick(now, queue)
		select {
		case item := <-queue:
			if item.Sentinel {
				break
			}
			captured++
			e.CaptureCompleted(now, true)
		default:
		}
		now = now.Add(time.Millisecond)
		if e.Snapshot().Complete {
			break
		}
	}
	if captured >= 1000 {
		t.Fatalf("captured %d, want fewer than number_limit", captured)
	}
	if got := e.StopReason(); got != StopReasonTime {
		t.Fatalf("stop reason = %q, want %q", got, StopReasonTime)
	}
}

func TestCooperativeStopFinishesInFlightCapture(t *testing.T) {
	e := newTestEngine(1000, time.Hour, 1000)
	queue := make(chan WorkItem, 1)
	now := time.Now()

	// Start a capture so capturing=true.
	e.Tick(now, queue)
	item := <-queue
	if item.Sentinel {
		t.Fatal("unexpected sentinel")
	}

	// Request stop while capture is in-flight: should not complete yet.
	e.RequestStop()
	e.Tick(now, queue)
	if e.Snapshot().Complete {
		t.Fatal("should not complete while a capture is in-flight")
	}

	// Finish the in-flight capture.
	e.CaptureCompleted(now, true)
	e.Tick(now, queue)
	if !e.Snapshot().Complete {
		t.Fatal("expected complete once the in-flight capture finishes and stop was requested")
	}
	if got := e.StopReason(); got != StopReasonSignal {
		t.Fatalf("stop reason = %q, want %q", got, StopReasonSignal)
	}

	sentinel := <-queue
	if !sentinel.Sentinel {
		t.Fatal("expected a sentinel enqueued once complete")
	}
}
