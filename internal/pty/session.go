package pty

import (
	"os"
	"os/exec"
	"syscall"

	ptylib "github.com/creack/pty"
)

// Session is the single owned pairing of a PTY master handle and one
// child process. All terminal and process access goes through it; nothing
// else reads, writes, or reaps. Close must not be called before Reap.
type Session struct {
	ID   string
	cmd  *exec.Cmd
	ptmx *os.File
}

// Pid returns the child's process ID.
func (s *Session) Pid() int {
	if s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Read reads terminal output from the master handle. Once the slave side
// is gone a read fails with EIO rather than io.EOF; callers treat either
// as end of session.
func (s *Session) Read(p []byte) (int, error) {
	return s.ptmx.Read(p)
}

// Write delivers input bytes to the terminal.
func (s *Session) Write(p []byte) (int, error) {
	return s.ptmx.Write(p)
}

// Resize applies a new window size to the terminal.
func (s *Session) Resize(rows, cols uint16) error {
	return ptylib.Setsize(s.ptmx, &ptylib.Winsize{Rows: rows, Cols: cols})
}

// Winsize reports the terminal's current window size.
func (s *Session) Winsize() (rows, cols uint16, err error) {
	ws, err := ptylib.GetsizeFull(s.ptmx)
	if err != nil {
		return 0, 0, err
	}
	return ws.Rows, ws.Cols, nil
}

// Signal forwards sig to the child process.
func (s *Session) Signal(sig os.Signal) error {
	if s.cmd.Process == nil {
		return nil
	}
	return s.cmd.Process.Signal(sig)
}

// Reap blocks until the child has fully terminated and classifies the
// outcome. Exactly one of code and signal is non-nil when the child
// exited normally or was killed by a signal. Both are nil if the wait
// status reports neither condition; that outcome is not mapped to a
// synthetic value.
func (s *Session) Reap() (code, signal *int) {
	// Wait returns an ExitError for any non-zero outcome; the
	// classification below reads the wait status directly.
	_ = s.cmd.Wait()

	ps := s.cmd.ProcessState
	if ps == nil {
		return nil, nil
	}
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok {
		if c := ps.ExitCode(); c >= 0 {
			return &c, nil
		}
		return nil, nil
	}
	switch {
	case ws.Exited():
		c := ws.ExitStatus()
		return &c, nil
	case ws.Signaled():
		n := int(ws.Signal())
		return nil, &n
	}
	return nil, nil
}

// Close releases the master handle. Call it only after Reap.
func (s *Session) Close() error {
	return s.ptmx.Close()
}
