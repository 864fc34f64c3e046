package vlm_test

import (
	"errors"
	"io"
	"testing"

	"github.com/adrianliechti/wingman-docling/pkg/vlm"

	"github.com/stretchr/testify/require"
)

// pull returns a pull function over chunks and a counter of pulls made.
func pull(chunks ...*vlm.Chunk) (func() (*vlm.Chunk, error), *int) {
	calls := 0

	return func() (*vlm.Chunk, error) {
		calls++

		if calls > len(chunks) {
			return nil, io.EOF
		}

		return chunks[calls-1], nil
	}, &calls
}

func TestGenerateStopsOnMarkerChunk(t *testing.T) {
	next, calls := pull(
		&vlm.Chunk{Text: "<doctag>hel", GenerationTokens: 1},
		&vlm.Chunk{Text: "lo</doctag>", GenerationTokens: 2},
		&vlm.Chunk{Text: "garbage", GenerationTokens: 3},
	)

	result, err := vlm.Generate(next, "</doctag>")
	require.NoError(t, err)

	require.Equal(t, "<doctag>hello</doctag>", result.Text)
	require.Equal(t, 2, *calls)
	require.Equal(t, 2, result.Last.GenerationTokens)
}

func TestGenerateIgnoresMarkerSplitAcrossChunks(t *testing.T) {
	next, calls := pull(
		&vlm.Chunk{Text: "<doctag>x</doc"},
		&vlm.Chunk{Text: "tag>"},
		&vlm.Chunk{Text: "tail", GenerationTokens: 7},
	)

	result, err := vlm.Generate(next, "</doctag>")
	require.NoError(t, err)

	require.Equal(t, "<doctag>x</doctag>tail", result.Text)
	require.Equal(t, 4, *calls)
	require.Equal(t, 7, result.Last.GenerationTokens)
}

func TestGenerateKeepsLastChunkOnly(t *testing.T) {
	next, _ := pull(
		&vlm.Chunk{Text: "a", PromptTokens: 10, GenerationTokens: 1, GenerationTPS: 50},
		&vlm.Chunk{Text: "b", PromptTokens: 10, GenerationTokens: 2, GenerationTPS: 20},
	)

	result, err := vlm.Generate(next, "</doctag>")
	require.NoError(t, err)

	require.Equal(t, "ab", result.Text)
	require.Equal(t, 20.0, result.Last.GenerationTPS)
	require.Equal(t, 2, result.Last.GenerationTokens)
}

func TestGenerateEmptyStream(t *testing.T) {
	next, _ := pull()

	result, err := vlm.Generate(next, "</doctag>")
	require.NoError(t, err)

	require.Empty(t, result.Text)
	require.Nil(t, result.Last)
}

func TestGeneratePropagatesErrors(t *testing.T) {
	failure := errors.New("out of memory")

	calls := 0

	next := func() (*vlm.Chunk, error) {
		calls++

		if calls == 2 {
			return nil, failure
		}

		return &vlm.Chunk{Text: "x"}, nil
	}

	_, err := vlm.Generate(next, "</doctag>")
	require.ErrorIs(t, err, failure)
}
