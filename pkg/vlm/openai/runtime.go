package openai

import (
	"context"
	"errors"
	"image"
	"io"
	"path/filepath"
	"time"

	"github.com/adrianliechti/wingman-docling/pkg/imaging"
	"github.com/adrianliechti/wingman-docling/pkg/vlm"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

var _ vlm.Runtime = (*Runtime)(nil)

// Runtime generates through an OpenAI compatible chat completions server
// such as mlx_vlm.server, vLLM or llama.cpp.
type Runtime struct {
	*Config
	completions openai.ChatCompletionService
}

func New(url string, options ...Option) (*Runtime, error) {
	cfg := &Config{
		url: url,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Runtime{
		Config:      cfg,
		completions: openai.NewChatCompletionService(cfg.Options()...),
	}, nil
}

// Load does not touch the model directory; the server owns the weights and
// applies its own chat template.
func (r *Runtime) Load(ctx context.Context, path string) (vlm.Model, vlm.Processor, error) {
	model := r.model

	if model == "" {
		model = filepath.Base(filepath.Clean(path))
	}

	return &Model{
		runtime: r,
		model:   model,
	}, vlm.PassthroughProcessor{}, nil
}

// LoadConfig reads config.json when the directory is available locally and
// falls back to an empty config otherwise.
func (r *Runtime) LoadConfig(ctx context.Context, path string) (*vlm.ModelConfig, error) {
	config, err := vlm.ReadConfig(path)

	if errors.Is(err, vlm.ErrModelNotFound) {
		return &vlm.ModelConfig{}, nil
	}

	return config, err
}

type Model struct {
	runtime *Runtime
	model   string
}

func (m *Model) Name() string {
	return m.model
}

func (m *Model) Generate(ctx context.Context, prompt string, images []image.Image, options *vlm.GenerateOptions) (vlm.Stream, error) {
	if options == nil {
		options = new(vlm.GenerateOptions)
	}

	parts := []openai.ChatCompletionContentPartUnionParam{}

	for _, img := range images {
		data, err := imaging.EncodePNG(img)

		if err != nil {
			return nil, err
		}

		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: imaging.DataURI("image/png", data),
		}))
	}

	parts = append(parts, openai.TextContentPart(prompt))

	req := openai.ChatCompletionNewParams{
		Model: m.model,

		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},

		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	if options.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(options.MaxTokens))
	}

	// servers such as vLLM then report usage on every chunk, so the counters
	// are already set on the chunk that ends the document
	continuous := option.WithJSONSet("stream_options.continuous_usage_stats", true)

	return &Stream{
		stream: m.runtime.completions.NewStreaming(ctx, req, continuous),
		start:  time.Now(),
	}, nil
}

// Stream adapts a chat completion event stream. Token counts come from the
// usage report when the server sends one, otherwise every content delta
// counts as one token. Servers that only report usage after the last delta
// leave the prompt counters at zero until then.
type Stream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]

	start time.Time
	first time.Time

	promptTokens     int
	generationTokens int
}

func (s *Stream) Next() (*vlm.Chunk, error) {
	for s.stream.Next() {
		chunk := s.stream.Current()

		var text string

		if len(chunk.Choices) > 0 {
			text = chunk.Choices[0].Delta.Content
		}

		usage := chunk.Usage.TotalTokens > 0

		if usage {
			s.promptTokens = int(chunk.Usage.PromptTokens)
			s.generationTokens = int(chunk.Usage.CompletionTokens)
		} else if text != "" {
			s.generationTokens++
		}

		if text == "" && !usage {
			continue
		}

		if s.first.IsZero() {
			s.first = time.Now()
		}

		return s.chunk(text), nil
	}

	if err := s.stream.Err(); err != nil {
		return nil, err
	}

	return nil, io.EOF
}

func (s *Stream) chunk(text string) *vlm.Chunk {
	chunk := &vlm.Chunk{
		Text: text,

		PromptTokens:     s.promptTokens,
		GenerationTokens: s.generationTokens,
	}

	if elapsed := s.first.Sub(s.start).Seconds(); elapsed > 0 {
		chunk.PromptTPS = float64(s.promptTokens) / elapsed
	}

	if elapsed := time.Since(s.first).Seconds(); elapsed > 0 {
		chunk.GenerationTPS = float64(s.generationTokens) / elapsed
	}

	return chunk
}

func (s *Stream) Close() error {
	return s.stream.Close()
}
