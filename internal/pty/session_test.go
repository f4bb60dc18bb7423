package pty

import (
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll drains the master handle until the terminal side closes. PTY
// reads fail with EIO once the child is gone, so any error ends the read.
func readAll(s *Session) []byte {
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := s.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			return out
		}
	}
}

func TestSpawnRejectsEmptyCommand(t *testing.T) {
	_, err := Spawn(nil, Options{})
	assert.Error(t, err)

	_, err = Spawn([]string{}, Options{})
	assert.Error(t, err)
}

func TestSpawnReportsLaunchFailure(t *testing.T) {
	_, err := Spawn([]string{"/does/not/exist-xyz"}, Options{})
	assert.Error(t, err)
}

func TestEchoExitsZero(t *testing.T) {
	sess, err := Spawn([]string{"echo", "hi"}, Options{})
	require.NoError(t, err)

	out := readAll(sess)
	assert.Contains(t, string(out), "hi")

	code, sig := sess.Reap()
	require.NotNil(t, code)
	assert.Equal(t, 0, *code)
	assert.Nil(t, sig)

	assert.NoError(t, sess.Close())
}

func TestNonZeroExitCode(t *testing.T) {
	sess, err := Spawn([]string{"sh", "-c", "exit 7"}, Options{})
	require.NoError(t, err)
	defer sess.Close()

	readAll(sess)

	code, sig := sess.Reap()
	require.NotNil(t, code)
	assert.Equal(t, 7, *code)
	assert.Nil(t, sig)
}

func TestSignaledChild(t *testing.T) {
	sess, err := Spawn([]string{"sh", "-c", "kill -TERM $$"}, Options{})
	require.NoError(t, err)
	defer sess.Close()

	readAll(sess)

	code, sig := sess.Reap()
	assert.Nil(t, code)
	require.NotNil(t, sig)
	assert.Equal(t, int(syscall.SIGTERM), *sig)
}

func TestForwardedSignal(t *testing.T) {
	sess, err := Spawn([]string{"sleep", "30"}, Options{})
	require.NoError(t, err)
	defer sess.Close()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sess.Signal(syscall.SIGKILL))

	code, sig := sess.Reap()
	assert.Nil(t, code)
	require.NotNil(t, sig)
	assert.Equal(t, int(syscall.SIGKILL), *sig)
}

func TestInitialSizeAndResize(t *testing.T) {
	sess, err := Spawn([]string{"cat"}, Options{Cols: 100, Rows: 50})
	require.NoError(t, err)
	defer sess.Close()

	rows, cols, err := sess.Winsize()
	require.NoError(t, err)
	assert.Equal(t, uint16(50), rows)
	assert.Equal(t, uint16(100), cols)

	require.NoError(t, sess.Resize(40, 120))
	rows, cols, err = sess.Winsize()
	require.NoError(t, err)
	assert.Equal(t, uint16(40), rows)
	assert.Equal(t, uint16(120), cols)

	// Applying the same size again is a no-op.
	require.NoError(t, sess.Resize(40, 120))
	rows, cols, err = sess.Winsize()
	require.NoError(t, err)
	assert.Equal(t, uint16(40), rows)
	assert.Equal(t, uint16(120), cols)

	require.NoError(t, sess.Signal(syscall.SIGKILL))
	sess.Reap()
}

func TestInputReachesTerminal(t *testing.T) {
	sess, err := Spawn([]string{"cat"}, Options{})
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.Write([]byte("hello\n"))
	require.NoError(t, err)
	// Ctrl-D at the start of a line ends cat's stdin.
	_, err = sess.Write([]byte{0x04})
	require.NoError(t, err)

	out := readAll(sess)
	assert.Contains(t, string(out), "hello")

	code, sig := sess.Reap()
	require.NotNil(t, code)
	assert.Equal(t, 0, *code)
	assert.Nil(t, sig)
}

func TestSpawnDefaultSize(t *testing.T) {
	sess, err := Spawn([]string{"cat"}, Options{Cols: -1, Rows: 0})
	require.NoError(t, err)
	defer sess.Close()

	rows, cols, err := sess.Winsize()
	require.NoError(t, err)
	assert.Equal(t, uint16(24), rows)
	assert.Equal(t, uint16(80), cols)

	require.NoError(t, sess.Signal(syscall.SIGKILL))
	sess.Reap()
}

func TestDetectShell(t *testing.T) {
	shell, err := DetectShell()
	require.NoError(t, err)
	assert.True(t, isExecutable(shell))
}

var _ io.Reader = (*Session)(nil)
var _ io.Writer = (*Session)(nil)
