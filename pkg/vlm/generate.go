package vlm

import (
	"errors"
	"io"
	"strings"
)

type Generation struct {
	Text string

	// Last is the final chunk pulled from the stream; its counters describe
	// the whole generation. Nil when the stream produced nothing.
	Last *Chunk
}

// Generate pulls chunks until the stream is exhausted or a chunk contains the
// stop marker. The marker is only looked for in the chunk just appended.
func Generate(next func() (*Chunk, error), stop string) (*Generation, error) {
	var output strings.Builder
	var last *Chunk

	for {
		chunk, err := next()

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		if chunk == nil {
			continue
		}

		last = chunk
		output.WriteString(chunk.Text)

		if stop != "" && strings.Contains(chunk.Text, stop) {
			break
		}
	}

	return &Generation{
		Text: output.String(),
		Last: last,
	}, nil
}
