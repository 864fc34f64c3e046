package vlm

import (
	"context"
	"errors"
	"image"
)

// DefaultMaxTokens caps a single generation.
const DefaultMaxTokens = 4096

var (
	ErrModelNotFound = errors.New("model not found")
)

// Runtime loads vision-language models from a model directory.
type Runtime interface {
	Load(ctx context.Context, path string) (Model, Processor, error)
	LoadConfig(ctx context.Context, path string) (*ModelConfig, error)
}

type Model interface {
	Generate(ctx context.Context, prompt string, images []image.Image, options *GenerateOptions) (Stream, error)
}

// Processor turns a user prompt into the model specific chat format.
type Processor interface {
	ApplyChatTemplate(config *ModelConfig, prompt string, numImages int) (string, error)
}

// Stream is a lazy, finite sequence of chunks. Next returns io.EOF once the
// generation is exhausted.
type Stream interface {
	Next() (*Chunk, error)
	Close() error
}

type GenerateOptions struct {
	MaxTokens int
}

// Chunk is one incremental piece of generated text. Counters are cumulative
// for the generation so far.
type Chunk struct {
	Text string

	PromptTokens int
	PromptTPS    float64

	GenerationTokens int
	GenerationTPS    float64

	// PeakMemory in GB
	PeakMemory float64
}
