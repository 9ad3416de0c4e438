// Package supervisor owns sensor lifecycle, the Routine engine, the
// Session recorder, and the inbound/outbound control FIFOs (§4.5), wiring
// them into the main tick loop.
package supervisor

import (
	"bufio"
	"os"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// ensureFIFO creates a named pipe at path with the given permission bits if
// nothing exists there yet (§4.5 step 4, §6 control FIFOs).
func ensureFIFO(path string, perm uint32) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "supervisor: stat fifo %q", path)
	}
	if err := syscall.Mkfifo(path, perm); err != nil {
		return errors.Wrapf(err, "supervisor: mkfifo %q", path)
	}
	return nil
}

// messageReader is the narrow interface runLoop needs from an inbound
// control channel, letting tests substitute an in-memory stub for a real
// FIFO.
type messageReader interface {
	ReadMessage() (message string, ok bool)
}

// inboundFIFO is PIPE_IN_FILE opened non-blocking for reading (§4.5 step 4).
// Reads never block the tick loop: a read with no writer attached, or with
// nothing currently buffered, returns immediately with "".
type inboundFIFO struct {
	path string
	fd   int
	file *os.File
}

func openInboundFIFO(path string) (*inboundFIFO, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "supervisor: opening inbound fifo %q", path)
	}
	return &inboundFIFO{path: path, fd: fd, file: os.NewFile(uintptr(fd), path)}, nil
}

// ReadMessage returns whatever input is currently buffered (one read of up
// to 4096 bytes, trimmed of surrounding whitespace), or ok=false if nothing
// is currently waiting (§4.5 "drain one message from input FIFO
// (non-blocking)").
func (f *inboundFIFO) ReadMessage() (message string, ok bool) {
	buf := make([]byte, 4096)
	n, err := syscall.Read(f.fd, buf)
	if err != nil || n <= 0 {
		return "", false
	}
	return strings.TrimSpace(string(buf[:n])), true
}

func (f *inboundFIFO) Close() error {
	return f.file.Close()
}

// writeOutbound best-effort writes message to PIPE_OUT_FILE, opened
// non-blocking for writing fresh on every call so a reader attaching and
// detaching doesn't wedge the Supervisor. A write failure (most commonly:
// no reader attached, ENXIO) is silently dropped per §4.5/§6.
func writeOutbound(path, message string) {
	fd, err := syscall.Open(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	f := os.NewFile(uintptr(fd), path)
	defer f.Close()
	w := bufio.NewWriter(f)
	_, _ = w.WriteString(message)
	_ = w.Flush()
}
