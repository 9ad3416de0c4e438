package supervisor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ru-wallace/triton/internal/autoexposure"
	"github.com/ru-wallace/triton/internal/frame"
	"github.com/ru-wallace/triton/internal/routine"
	"github.com/ru-wallace/triton/internal/sensorport"
	"github.com/ru-wallace/triton/internal/session"
	"github.com/ru-wallace/triton/internal/tlog"
	"github.com/ru-wallace/triton/internal/units"
)

// fakeInbound is a messageReader stub feeding a fixed sequence of messages,
// one per ReadMessage call, then reporting none forever after.
type fakeInbound struct {
	messages []string
	idx      int
}

func (f *fakeInbound) ReadMessage() (string, bool) {
	if f.idx >= len(f.messages) {
		return "", false
	}
	m := f.messages[f.idx]
	f.idx++
	return m, true
}

func newTestSensor() *sensorport.Simulated {
	s := sensorport.NewSimulated(8, 8, frame.FormatMono8)
	temp := units.Celsius(21.0)
	s.AmbientTemp = &temp
	return s
}

func TestRunLoopCapturesUntilScheduleExhausted(t *testing.T) {
	root := t.TempDir()
	sess, err := session.Open(root, "loop-test")
	require.NoError(t, err)

	recorder := session.NewRecorder(sess, nil)
	recorder.Start()

	engine := routine.New(routine.Params{
		Name:        "loop-test",
		NumberLimit: 3,
		Schedule: []routine.Setting{
			{IntegrationTime: units.FromSeconds(0.001), Gain: 1},
			{IntegrationTime: units.FromSeconds(0.001), Gain: 1},
			{IntegrationTime: units.FromSeconds(0.001), Gain: 1},
		},
	}, 3)

	sensor := newTestSensor()
	worker := &captureWorker{
		sensor:   sensor,
		pressure: &sensorport.SimulatedPressure{DepthM: 5, PressureMB: 1013, TempC: 12},
		engine:   engine,
		recorder: recorder,
		log:      tlog.Discard(),
		aeConfig: autoexposure.DefaultConfig(),
	}

	queue := make(chan routine.WorkItem, 1)
	inbound := &fakeInbound{}
	outPath := filepath.Join(root, "control_out")

	err = runLoop(context.Background(), engine, queue, worker, recorder, inbound, outPath, sess, tlog.Discard())
	require.NoError(t, err)
	recorder.Stop()

	require.Equal(t, 3, sess.ImageCount())
	require.Equal(t, routine.StopReasonSchedule, engine.StopReason())
}

func TestStatusMessageFormat(t *testing.T) {
	root := t.TempDir()
	sess, err := session.Open(root, "status-fmt")
	require.NoError(t, err)
	engine := routine.New(routine.Params{Name: "dive-plan"}, 1)

	msg := statusMessage(engine, sess, 2, true)
	require.Contains(t, msg, "Routine: dive-plan")
	require.Contains(t, msg, "Session: status-fmt")
	require.Contains(t, msg, "Queue: 2")
	require.Contains(t, msg, "STOPPING")

	msgNotStopping := statusMessage(engine, sess, 0, false)
	require.NotContains(t, msgNotStopping, "STOPPING")
}

func TestRunLoopHandlesStatusMessage(t *testing.T) {
	root := t.TempDir()
	sess, err := session.Open(root, "status-msg")
	require.NoError(t, err)

	recorder := session.NewRecorder(sess, nil)
	recorder.Start()
	defer recorder.Stop()

	engine := routine.New(routine.Params{Name: "status-msg", NumberLimit: 0, Schedule: nil}, 0)
	worker := &captureWorker{
		sensor:   newTestSensor(),
		pressure: &sensorport.SimulatedPressure{},
		engine:   engine,
		recorder: recorder,
		log:      tlog.Discard(),
		aeConfig: autoexposure.DefaultConfig(),
	}

	queue := make(chan routine.WorkItem, 1)
	inbound := &fakeInbound{messages: []string{"STATUS"}}
	outPath := filepath.Join(root, "control_out_status")

	err = runLoop(context.Background(), engine, queue, worker, recorder, inbound, outPath, sess, tlog.Discard())
	require.NoError(t, err)
}

func TestRunLoopHandlesStopMessage(t *testing.T) {
	root := t.TempDir()
	sess, err := session.Open(root, "stop-test")
	require.NoError(t, err)

	recorder := session.NewRecorder(sess, nil)
	recorder.Start()

	engine := routine.New(routine.Params{
		Name:        "stop-test",
		NumberLimit: 1000,
		Schedule: func() []routine.Setting {
			s := make([]routine.Setting, 1000)
			for i := range s {
				s[i] = routine.Setting{IntegrationTime: units.FromSeconds(0.001), Gain: 1}
			}
			return s
		}(),
	}, 1000)

	sensor := newTestSensor()
	worker := &captureWorker{
		sensor:   sensor,
		pressure: &sensorport.SimulatedPressure{},
		engine:   engine,
		recorder: recorder,
		log:      tlog.Discard(),
		aeConfig: autoexposure.DefaultConfig(),
	}

	queue := make(chan routine.WorkItem, 1)
	inbound := &fakeInbound{messages: []string{"STOP"}}
	outPath := filepath.Join(root, "control_out")

	done := make(chan error, 1)
	go func() {
		done <- runLoop(context.Background(), engine, queue, worker, recorder, inbound, outPath, sess, tlog.Discard())
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not stop after STOP message")
	}
	recorder.Stop()

	require.Equal(t, routine.StopReasonSignal, engine.StopReason())
	require.Less(t, sess.ImageCount(), 1000)
}
