// Package protocol defines the newline-delimited JSON messages exchanged
// with the parent process over the command channel. Terminal payloads are
// base64-encoded so raw control bytes never break line framing.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Message kinds carried in the "type" field.
const (
	KindOutput = "output"
	KindInput  = "input"
	KindResize = "resize"
	KindExit   = "exit"
)

// Message is the inbound envelope parsed from one line on the command
// channel. Data stays raw until the type is known.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	Cols int             `json:"cols,omitempty"`
	Rows int             `json:"rows,omitempty"`
}

// OutputMessage carries one chunk of terminal output to the parent.
type OutputMessage struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ExitMessage reports the child's termination. Exactly one of Code and
// Signal is non-nil for a normal or signaled exit. Both nil means the OS
// reported neither condition; that case is passed through as-is rather
// than mapped to a synthetic value.
type ExitMessage struct {
	Type   string `json:"type"`
	Code   *int   `json:"code"`
	Signal *int   `json:"signal"`
}

// ParseLine decodes one command-channel line. An error means the line
// should be skipped, not that the session is broken.
func ParseLine(line []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return m, nil
}

// InputBytes decodes an input message's payload. It reports false when
// the payload is not a string or not valid base64; such messages are
// ignored by the caller.
func (m Message) InputBytes() ([]byte, bool) {
	var s string
	if err := json.Unmarshal(m.Data, &s); err != nil {
		return nil, false
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}

// Winsize validates a resize message's geometry. It reports false unless
// both dimensions are positive and fit a terminal winsize field; a false
// result means the current window size must be left unchanged.
func (m Message) Winsize() (rows, cols uint16, ok bool) {
	if m.Rows <= 0 || m.Cols <= 0 || m.Rows > math.MaxUint16 || m.Cols > math.MaxUint16 {
		return 0, 0, false
	}
	return uint16(m.Rows), uint16(m.Cols), true
}

// EncodeOutput writes one output message followed by a newline.
func EncodeOutput(w io.Writer, b []byte) error {
	return json.NewEncoder(w).Encode(OutputMessage{
		Type: KindOutput,
		Data: base64.StdEncoding.EncodeToString(b),
	})
}

// EncodeExit writes the final exit message followed by a newline. Nil
// fields are serialized as explicit nulls so the parent can distinguish
// "exited with code 0" from "terminated by signal".
func EncodeExit(w io.Writer, code, signal *int) error {
	return json.NewEncoder(w).Encode(ExitMessage{
		Type:   KindExit,
		Code:   code,
		Signal: signal,
	})
}
