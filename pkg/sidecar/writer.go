package sidecar

import (
	"bufio"
	"encoding/json"
	"io"
)

// envelopeWriter writes exactly one JSON line per envelope.
type envelopeWriter struct {
	enc *json.Encoder
	w   *bufio.Writer
}

func newEnvelopeWriter(writer io.Writer) *envelopeWriter {
	buf := bufio.NewWriter(writer)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	return &envelopeWriter{
		enc: enc,
		w:   buf,
	}
}

func (e *envelopeWriter) Write(envelope any) error {
	if err := e.enc.Encode(envelope); err != nil {
		return err
	}

	return e.w.Flush()
}

// WriteFailure writes a generic failure envelope, for errors that happen
// before a command could be dispatched.
func WriteFailure(w io.Writer, err error) error {
	return newEnvelopeWriter(w).Write(failure(err))
}
