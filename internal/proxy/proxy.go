// Package proxy relays one PTY session over the line-oriented command
// channel: terminal output out as encoded messages, parent input and
// resize commands in, and a final exit report when the child is gone.
package proxy

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/PiranhaCodes/webpty-proxy/internal/protocol"
	"github.com/PiranhaCodes/webpty-proxy/internal/pty"
)

// Config holds the loop's tunables.
type Config struct {
	// ReadBufferSize bounds a single PTY read. Non-positive values fall
	// back to 8 KiB.
	ReadBufferSize int
}

const defaultReadBufferSize = 8192

// maxLineBytes caps one inbound command-channel line. Input payloads are
// base64, so this comfortably covers multi-megabyte pastes. Longer lines
// are consumed and discarded like any other unusable message.
const maxLineBytes = 4 * 1024 * 1024

// Run drives the session until either the terminal side or the parent
// side closes, then reaps the child, emits the exit message, and releases
// the master handle. The exit report runs on every path out of the loop.
//
// Each direction flows through its own FIFO channel, so ordering within a
// direction is preserved and neither side can starve the other.
func Run(sess *pty.Session, in io.Reader, out io.Writer, cfg Config, log *zap.Logger) {
	log = log.With(zap.String("session", sess.ID))

	bufSize := cfg.ReadBufferSize
	if bufSize <= 0 {
		bufSize = defaultReadBufferSize
	}

	ptyCh := make(chan []byte, 1)
	go func() {
		defer close(ptyCh)
		buf := make([]byte, bufSize)
		for {
			n, err := sess.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				ptyCh <- chunk
			}
			if err != nil {
				// EIO here means the slave side is gone; either way
				// the terminal side of the session is finished.
				if !errors.Is(err, io.EOF) {
					log.Debug("pty read ended", zap.Error(err))
				}
				return
			}
		}
	}()

	lineCh := make(chan []byte, 1)
	go func() {
		defer close(lineCh)
		br := bufio.NewReaderSize(in, 64*1024)
		for {
			line, err := readLine(br)
			if line != nil {
				lineCh <- line
			}
			if err != nil {
				if err != io.EOF {
					log.Debug("command channel read ended", zap.Error(err))
				}
				return
			}
		}
	}()

	defer report(sess, ptyCh, out, log)

	for {
		select {
		case chunk, ok := <-ptyCh:
			if !ok {
				return
			}
			if err := protocol.EncodeOutput(out, chunk); err != nil {
				log.Debug("command channel write failed", zap.Error(err))
				return
			}
		case line, ok := <-lineCh:
			if !ok {
				// Terminal output read before the parent closed its
				// side is still emitted before the session ends.
				flushPending(ptyCh, out, log)
				return
			}
			apply(sess, line, log)
		}
	}
}

// readLine reads one newline-terminated line. Lines over maxLineBytes are
// consumed to their end and reported as nil so a single huge line cannot
// end the session. A trailing fragment at EOF counts as a line.
func readLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	oversized := false
	for {
		frag, err := br.ReadSlice('\n')
		if !oversized {
			line = append(line, frag...)
			if len(line) > maxLineBytes {
				oversized = true
				line = nil
			}
		}
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if oversized {
			return nil, err
		}
		return line, err
	}
	if oversized {
		return nil, nil
	}
	return bytes.TrimSuffix(line, []byte("\n")), nil
}

// flushPending emits terminal chunks already buffered at the moment the
// parent side closed, without waiting for more.
func flushPending(ptyCh <-chan []byte, out io.Writer, log *zap.Logger) {
	for {
		select {
		case chunk, ok := <-ptyCh:
			if !ok {
				return
			}
			if err := protocol.EncodeOutput(out, chunk); err != nil {
				log.Debug("command channel write failed", zap.Error(err))
				return
			}
		default:
			return
		}
	}
}

// apply handles one inbound command-channel line. Malformed lines and
// invalid payloads are skipped; PTY write and resize failures are
// swallowed so a fault near shutdown cannot kill the session.
func apply(sess *pty.Session, line []byte, log *zap.Logger) {
	msg, err := protocol.ParseLine(line)
	if err != nil {
		log.Debug("skipping malformed line", zap.Error(err))
		return
	}

	switch msg.Type {
	case protocol.KindInput:
		data, ok := msg.InputBytes()
		if !ok {
			return
		}
		if _, err := sess.Write(data); err != nil {
			log.Debug("pty write failed", zap.Error(err))
		}
	case protocol.KindResize:
		rows, cols, ok := msg.Winsize()
		if !ok {
			return
		}
		if err := sess.Resize(rows, cols); err != nil {
			log.Debug("resize failed", zap.Error(err))
		}
	default:
		// Unrecognized message types are ignored.
	}
}

// report reaps the child, emits the final exit message, and closes the
// master handle. Write and close failures are swallowed; the session is
// ending regardless.
func report(sess *pty.Session, ptyCh <-chan []byte, out io.Writer, log *zap.Logger) {
	// Keep draining terminal output so a still-running child cannot
	// block on a full terminal buffer while we wait for it.
	go func() {
		for range ptyCh {
		}
	}()

	code, signal := sess.Reap()
	log.Info("child terminated",
		zap.Intp("code", code),
		zap.Intp("signal", signal),
	)

	if err := protocol.EncodeExit(out, code, signal); err != nil {
		log.Debug("exit message dropped", zap.Error(err))
	}
	if err := sess.Close(); err != nil {
		log.Debug("master close failed", zap.Error(err))
	}
}
