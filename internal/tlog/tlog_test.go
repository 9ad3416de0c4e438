package tlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSinkBuffersBeforeSwitch(t *testing.T) {
	s := NewSink(0)
	l := New(s, "")
	l.Infof("hello %d", 1)
	l.Warnf("careful")

	s.mu.Lock()
	buffered := s.buf.String()
	s.mu.Unlock()
	if !strings.Contains(buffered, "hello 1") || !strings.Contains(buffered, "WARN careful") {
		t.Fatalf("buffered log missing expected lines: %q", buffered)
	}
}

func TestSinkSwitchToFileFlushesBuffer(t *testing.T) {
	s := NewSink(0)
	l := New(s, "")
	l.Infof("buffered before switch")

	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "session.log"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := s.SwitchToFile(f); err != nil {
		t.Fatalf("SwitchToFile: %v", err)
	}
	l.Infof("written after switch")

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "buffered before switch") {
		t.Fatal("expected pre-switch buffer to be flushed to the file")
	}
	if !strings.Contains(string(data), "written after switch") {
		t.Fatal("expected post-switch writes to land in the file")
	}

	if err := s.SwitchToFile(f); err != errAlreadySwitched {
		t.Fatalf("second SwitchToFile = %v, want errAlreadySwitched", err)
	}
}

func TestDebugfGatedByVerbose(t *testing.T) {
	s := NewSink(0)
	l := New(s, "")
	l.Debugf("should not appear")

	s.mu.Lock()
	before := s.buf.String()
	s.mu.Unlock()
	if strings.Contains(before, "should not appear") {
		t.Fatal("Debugf should be silent when verbose is disabled")
	}

	l.SetVerbose(true)
	l.Debugf("now it appears")
	s.mu.Lock()
	after := s.buf.String()
	s.mu.Unlock()
	if !strings.Contains(after, "now it appears") {
		t.Fatal("Debugf should log once verbose is enabled")
	}
}

func TestSinkCapacityDropsOldest(t *testing.T) {
	s := NewSink(16)
	for i := 0; i < 20; i++ {
		s.Write([]byte("0123456789"))
	}
	s.mu.Lock()
	n := s.buf.Len()
	s.mu.Unlock()
	if n > 16 {
		t.Fatalf("buffer length %d exceeds capacity 16", n)
	}
}
