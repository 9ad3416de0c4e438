package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ru-wallace/triton/internal/autoexposure"
	"github.com/ru-wallace/triton/internal/routine"
	"github.com/ru-wallace/triton/internal/sensorport"
	"github.com/ru-wallace/triton/internal/session"
	"github.com/ru-wallace/triton/internal/tlog"
	"github.com/ru-wallace/triton/internal/units"
)

// TestRunLoopStopsViaRealFIFO drives scenario 6 (§8, cooperative stop) end
// to end through real named pipes rather than the in-memory messageReader
// stub the other tests use: it Mkfifos an inbound and outbound pipe,
// writes "STOP" into the inbound side the way the console/TUI would, and
// checks the loop exits and the outbound side actually carries "STOPPING".
func TestRunLoopStopsViaRealFIFO(t *testing.T) {
	root := t.TempDir()
	inPath := filepath.Join(root, "ctl_in")
	outPath := filepath.Join(root, "ctl_out")

	require.NoError(t, ensureFIFO(inPath, fifoPerm))
	require.NoError(t, ensureFIFO(outPath, fifoPerm))

	inbound, err := openInboundFIFO(inPath)
	require.NoError(t, err)
	defer inbound.Close()

	sess, err := session.Open(root, "real-fifo-test")
	require.NoError(t, err)

	recorder := session.NewRecorder(sess, nil)
	recorder.Start()
	defer recorder.Stop()

	engine := routine.New(routine.Params{
		Name:        "real-fifo-test",
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

	done := make(chan error, 1)
	go func() {
		done <- runLoop(context.Background(), engine, queue, worker, recorder, inbound, outPath, sess, tlog.Discard())
	}()

	// Open the outbound pipe for reading before writing STOP, or writes
	// with no attached reader are silently dropped per writeOutbound's
	// own contract.
	outReader, err := os.OpenFile(outPath, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	require.NoError(t, err)
	defer outReader.Close()

	writeRealFIFO(t, inPath, "STOP\n")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not stop after a STOP message delivered over a real FIFO")
	}
	require.Equal(t, routine.StopReasonSignal, engine.StopReason())
	require.Less(t, sess.ImageCount(), 1000)

	// ackStop keeps writing "STOPPING" for up to stopAckCount*stopAckInterval
	// after runLoop itself returns, so poll briefly rather than reading once.
	deadline := time.Now().Add(3 * time.Second)
	buf := make([]byte, 4096)
	var got string
	for time.Now().Before(deadline) {
		n, _ := outReader.Read(buf)
		if n > 0 {
			got += string(buf[:n])
			if strings.Contains(got, "STOPPING") {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.Contains(t, got, "STOPPING")
}

// writeRealFIFO opens path for blocking write (the inbound reader is
// already attached non-blocking, so this does not wedge) and writes msg.
func writeRealFIFO(t *testing.T, path, msg string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(msg)
	require.NoError(t, err)
}
