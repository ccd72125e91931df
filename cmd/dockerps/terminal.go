package main

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"dockerps/internal/ipc"
)

// terminal is the local leg of a shell session: it reads the user's input
// and writes gateway output with the reply trailer removed.
type terminal struct {
	in     io.Reader
	closer io.Closer
	out    *ipc.TrailerWriter

	// onEOF runs when input ends. Read then blocks until Close so the
	// session keeps draining output from the gateway.
	onEOF  func()
	closed chan struct{}
	once   sync.Once

	restores []func()
}

// openTerminal prepares in and out for relaying. A TTY on in is switched to
// raw mode; file input is read through a non-blocking duplicate so Close can
// interrupt a pending read.
func openTerminal(in io.Reader, out io.Writer, onEOF func()) (*terminal, error) {
	t := &terminal{
		in:     in,
		out:    ipc.NewTrailerWriter(out),
		onEOF:  onEOF,
		closed: make(chan struct{}),
	}

	file, ok := in.(*os.File)
	if !ok {
		return t, nil
	}
	fd := int(file.Fd())
	if isatty.IsTerminal(uintptr(fd)) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		t.restores = append(t.restores, func() { _ = term.Restore(fd, state) })
	}

	dup, err := unix.Dup(fd)
	if err != nil {
		return t, nil
	}
	if err := unix.SetNonblock(dup, true); err != nil {
		_ = unix.Close(dup)
		return t, nil
	}
	// O_NONBLOCK is shared with fd through the open file description.
	t.restores = append(t.restores, func() { _ = unix.SetNonblock(fd, false) })
	pollable := os.NewFile(uintptr(dup), file.Name())
	t.in = pollable
	t.closer = pollable
	return t, nil
}

func (t *terminal) Read(p []byte) (int, error) {
	n, err := t.in.Read(p)
	if !errors.Is(err, io.EOF) {
		return n, err
	}
	if n > 0 {
		return n, nil
	}
	if t.onEOF != nil {
		t.onEOF()
		<-t.closed
	}
	return 0, io.EOF
}

func (t *terminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

// Close interrupts a pending Read. It does not touch the process stdio.
func (t *terminal) Close() error {
	t.once.Do(func() {
		close(t.closed)
		if t.closer != nil {
			_ = t.closer.Close()
		}
	})
	return nil
}

// finish flushes held output and restores terminal state. It reports whether
// the gateway's trailer was received.
func (t *terminal) finish() (bool, error) {
	for i := len(t.restores) - 1; i >= 0; i-- {
		t.restores[i]()
	}
	t.restores = nil
	return t.out.Close()
}
