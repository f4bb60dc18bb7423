package pty

import (
	"fmt"
	"os"
	"os/exec"

	ptylib "github.com/creack/pty"
	"github.com/google/uuid"
)

// Options controls how the child command is launched.
type Options struct {
	// Dir is the child's working directory; empty means inherit.
	Dir string
	// Term is exported to the child as TERM; empty means inherit.
	Term string
	// Cols and Rows set the initial window size. Non-positive values
	// fall back to 80x24.
	Cols int
	Rows int
}

// Spawn allocates a new pseudo-terminal pair and starts argv attached to
// the slave side as its controlling terminal. The returned Session holds
// exclusive ownership of the master handle and the child process.
func Spawn(argv []string, opts Options) (*Session, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = os.Environ()
	if opts.Term != "" {
		cmd.Env = append(cmd.Env, "TERM="+opts.Term)
	}

	size := &ptylib.Winsize{Cols: 80, Rows: 24}
	if opts.Cols > 0 {
		size.Cols = uint16(opts.Cols)
	}
	if opts.Rows > 0 {
		size.Rows = uint16(opts.Rows)
	}

	ptmx, err := ptylib.StartWithSize(cmd, size)
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	return &Session{
		ID:   uuid.New().String(),
		cmd:  cmd,
		ptmx: ptmx,
	}, nil
}
