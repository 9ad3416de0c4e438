package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ru-wallace/triton/internal/config"
	"github.com/ru-wallace/triton/internal/frame"
	"github.com/ru-wallace/triton/internal/sensorport"
	"github.com/ru-wallace/triton/internal/tlog"
)

// TestRunCreatesSessionOutputLog exercises Run end to end (minus real
// hardware) and checks that a Session's on-disk layout (§3) actually gains
// an output.log once the Sink is switched over to it, rather than keeping
// every supervisor log line buffered in memory.
func TestRunCreatesSessionOutputLog(t *testing.T) {
	root := t.TempDir()
	routinesDir := filepath.Join(root, "routines")
	require.NoError(t, os.MkdirAll(routinesDir, 0o755))
	writeRoutineFile(t, routinesDir, "one-shot.txt", "name: one-shot\nnumber_limit: 1\nintegration_time: 0.001\ngain: 1\n")

	env := config.Env{
		RoutineNameOrPath: "one-shot",
		SessionName:       "output-log-test",
		DataDirectory:     root,
		PipeInFile:        filepath.Join(root, "ctl_in"),
		PipeOutFile:       filepath.Join(root, "ctl_out"),
	}

	sink := tlog.NewSink(0)
	log := tlog.New(sink, "tritond-test: ")

	cfg := Config{
		Env:            env,
		RoutinesDir:    routinesDir,
		Sensor:         sensorport.NewSimulated(8, 8, frame.FormatMono8),
		PressureSensor: &sensorport.SimulatedPressure{},
		Logger:         log,
	}

	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), cfg) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not complete a single-capture routine in time")
	}

	logPath := filepath.Join(root, "sessions", "output-log-test", outputLogName)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "supervisor: logging to")
}
