package sidecar

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"github.com/adrianliechti/wingman-docling/pkg/doctags"
	"github.com/adrianliechti/wingman-docling/pkg/imaging"
	"github.com/adrianliechti/wingman-docling/pkg/vlm"
)

type ImageDecoder interface {
	Decode(data []byte) (image.Image, error)
}

// Converter runs one image through the model and renders the resulting
// document.
type Converter struct {
	runtime vlm.Runtime

	decoder ImageDecoder
	builder DocumentBuilder

	logger    *slog.Logger
	maxTokens int
}

type Option func(*Converter)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

func WithDecoder(decoder ImageDecoder) Option {
	return func(c *Converter) {
		c.decoder = decoder
	}
}

func WithBuilder(builder DocumentBuilder) Option {
	return func(c *Converter) {
		c.builder = builder
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(c *Converter) {
		c.maxTokens = maxTokens
	}
}

func NewConverter(runtime vlm.Runtime, options ...Option) *Converter {
	c := &Converter{
		runtime: runtime,

		decoder: imaging.NewDecoder(),
		builder: DoclingBuilder{},

		logger:    slog.Default(),
		maxTokens: vlm.DefaultMaxTokens,
	}

	for _, option := range options {
		option(c)
	}

	if c.maxTokens <= 0 {
		c.maxTokens = vlm.DefaultMaxTokens
	}

	return c
}

// Convert never returns an error; every failure, panics included, ends up
// in the envelope.
func (c *Converter) Convert(ctx context.Context, cmd *Command, data []byte) (result *ConvertResponse) {
	logger := c.loggerFor(ctx)

	if err := cmd.Validate(); err != nil {
		return convertFailure(err)
	}

	if cmd.ModelPath == "" {
		return convertFailure(&ParameterError{Name: "model_path"})
	}

	if len(data) == 0 {
		return convertFailure(ErrEmptyPayload)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("conversion failed", "panic", r, "stack", string(debug.Stack()))
			result = convertFailure(fmt.Errorf("%v", r))
		}
	}()

	result, err := c.convert(ctx, logger, cmd, data)

	if err != nil {
		logger.Error("conversion failed", "error", err)
		return convertFailure(err)
	}

	return result
}

func (c *Converter) loggerFor(ctx context.Context) *slog.Logger {
	if logger, ok := LoggerFromContext(ctx); ok {
		return logger
	}

	return c.logger
}

func (c *Converter) convert(ctx context.Context, logger *slog.Logger, cmd *Command, data []byte) (*ConvertResponse, error) {
	logger.Info("loading image")

	img, err := c.decoder.Decode(data)

	if err != nil {
		return nil, err
	}

	logger.Info("loading model", "path", cmd.ModelPath)

	model, processor, err := c.runtime.Load(ctx, cmd.ModelPath)

	if err != nil {
		return nil, err
	}

	config, err := c.runtime.LoadConfig(ctx, cmd.ModelPath)

	if err != nil {
		return nil, err
	}

	prompt, err := processor.ApplyChatTemplate(config, cmd.Prompt, 1)

	if err != nil {
		return nil, err
	}

	logger.Info("using prompt", "prompt", cmd.Prompt)
	logger.Info("generating document structure")

	generation, err := c.generate(ctx, logger, model, prompt, img)

	if err != nil {
		return nil, err
	}

	metadata := newMetadata(generation.Last)

	logger.Info("generation complete",
		"characters", utf8.RuneCountInString(generation.Text),
		"tokens", metadata.GenerationTokens,
	)

	logger.Info(fmt.Sprintf("Prompt: %d tokens, %.1f t/s | Generation: %d tokens, %.1f t/s | Peak memory: %.3f GB",
		metadata.PromptTokens, metadata.PromptTokensPerSec,
		metadata.GenerationTokens, metadata.GenerationTokensPerSec,
		metadata.PeakMemoryGB,
	))

	tags := doctags.Truncate(generation.Text)

	logger.Info("creating docling document")

	doc, err := c.builder.Build(tags, img, cmd.DocumentName)

	if err != nil {
		return nil, err
	}

	content, err := Render(doc, cmd.OutputFormat, cmd.ImageMode, cmd.IncludePageImages)

	if err != nil {
		return nil, err
	}

	logger.Info("conversion complete", "format", cmd.OutputFormat)

	return convertSuccess(cmd.OutputFormat, content, metadata), nil
}

func (c *Converter) generate(ctx context.Context, logger *slog.Logger, model vlm.Model, prompt string, img image.Image) (*vlm.Generation, error) {
	start := time.Now()

	stream, err := model.Generate(ctx, prompt, []image.Image{img}, &vlm.GenerateOptions{
		MaxTokens: c.maxTokens,
	})

	if err != nil {
		return nil, err
	}

	defer stream.Close()

	generation, err := vlm.Generate(stream.Next, doctags.Close)

	if err != nil {
		return nil, err
	}

	logger.Debug("stream finished", "duration", time.Since(start))

	return generation, nil
}
