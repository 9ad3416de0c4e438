package session

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ru-wallace/triton/internal/frame"
	"github.com/ru-wallace/triton/internal/units"
)

func completeFrame(t *testing.T, w, h int) *frame.Frame {
	t.Helper()
	f := frame.New(w, h, frame.FormatMono8, make([]byte, w*h), time.Now(), units.FromSeconds(0.1), units.Gain(1), 1.0, false)
	require.NoError(t, f.SetDepth(nil))
	require.NoError(t, f.SetPressure(nil))
	require.NoError(t, f.SetEnvTemperature(nil))
	require.NoError(t, f.SetDeviceTemperature(nil))
	require.True(t, f.AttachmentsComplete())
	return f
}

func TestRecorderPersistsFrames(t *testing.T) {
	root := t.TempDir()
	sess, err := Open(root, "persist-test")
	require.NoError(t, err)

	r := NewRecorder(sess, nil)
	r.Start()

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Enqueue(completeFrame(t, 4, 4)))
	}
	r.Stop()

	require.Len(t, sess.Images, 3)

	entries, err := os.ReadDir(sess.ImageDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	data, err := os.ReadFile(sess.CSVPath)
	require.NoError(t, err)
	reader := csv.NewReader(bytes.NewReader(data))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 rows
}

func TestRecorderEnqueueAfterStopErrors(t *testing.T) {
	root := t.TempDir()
	sess, err := Open(root, "stop-test")
	require.NoError(t, err)

	r := NewRecorder(sess, nil)
	r.Start()
	r.Stop()

	err = r.Enqueue(completeFrame(t, 2, 2))
	require.ErrorIs(t, err, errRecorderStopped)
}

func TestRecorderImageNumberingMatchesSessionListPath(t *testing.T) {
	root := t.TempDir()
	sess, err := Open(root, "numbering")
	require.NoError(t, err)
	r := NewRecorder(sess, nil)
	r.Start()
	require.NoError(t, r.Enqueue(completeFrame(t, 3, 3)))
	r.Stop()

	require.FileExists(t, filepath.Join(sess.ImageDir, "numbering_001.png"))
}
