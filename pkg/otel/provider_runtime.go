package otel

import (
	"context"
	"errors"
	"image"
	"io"
	"path/filepath"
	"time"

	"github.com/adrianliechti/wingman-docling/pkg/vlm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.38.0/genaiconv"
	"go.opentelemetry.io/otel/trace"
)

type Runtime interface {
	Observable
	vlm.Runtime
}

type observableRuntime struct {
	provider string

	runtime vlm.Runtime

	tokenUsageMetric        genaiconv.ClientTokenUsage
	operationDurationMetric genaiconv.ClientOperationDuration
}

func NewRuntime(provider string, r vlm.Runtime) Runtime {
	meter := otel.Meter(instrumentationName)

	tokenUsageMetric, _ := genaiconv.NewClientTokenUsage(meter)
	operationDurationMetric, _ := genaiconv.NewClientOperationDuration(meter)

	return &observableRuntime{
		runtime: r,

		provider: provider,

		tokenUsageMetric:        tokenUsageMetric,
		operationDurationMetric: operationDurationMetric,
	}
}

func (r *observableRuntime) otelSetup() {
}

func (r *observableRuntime) Load(ctx context.Context, path string) (vlm.Model, vlm.Processor, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "load "+path)
	defer span.End()

	model, processor, err := r.runtime.Load(ctx, path)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	name := filepath.Base(filepath.Clean(path))

	if n, ok := model.(interface{ Name() string }); ok {
		name = n.Name()
	}

	return &observableModel{
		runtime: r,
		model:   model,
		name:    name,
	}, processor, nil
}

func (r *observableRuntime) LoadConfig(ctx context.Context, path string) (*vlm.ModelConfig, error) {
	return r.runtime.LoadConfig(ctx, path)
}

type observableModel struct {
	runtime *observableRuntime

	model vlm.Model
	name  string
}

func (m *observableModel) Name() string {
	return m.name
}

func (m *observableModel) Generate(ctx context.Context, prompt string, images []image.Image, options *vlm.GenerateOptions) (vlm.Stream, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "generate "+m.name)

	stream, err := m.model.Generate(ctx, prompt, images, options)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.End()

		return nil, err
	}

	return &observableStream{
		ctx:  ctx,
		span: span,

		model:  m,
		stream: stream,

		timestamp: time.Now(),
	}, nil
}

// observableStream records duration and token usage of the last chunk once
// the stream is closed.
type observableStream struct {
	ctx  context.Context
	span trace.Span

	model  *observableModel
	stream vlm.Stream

	timestamp time.Time
	last      *vlm.Chunk
	closed    bool
}

func (s *observableStream) Next() (*vlm.Chunk, error) {
	chunk, err := s.stream.Next()

	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.span.SetStatus(codes.Error, err.Error())
		}

		return chunk, err
	}

	if chunk != nil {
		s.last = chunk
	}

	return chunk, nil
}

func (s *observableStream) Close() error {
	err := s.stream.Close()

	if s.closed {
		return err
	}

	s.closed = true

	defer s.span.End()

	r := s.model.runtime

	duration := time.Since(s.timestamp).Seconds()
	providerName := genaiconv.ProviderNameAttr(r.provider)

	r.operationDurationMetric.Record(s.ctx, duration,
		genaiconv.OperationNameChat,
		providerName,
		r.operationDurationMetric.AttrRequestModel(s.model.name),
	)

	if s.last == nil {
		return err
	}

	s.span.SetAttributes(
		Int("gen_ai.usage.input_tokens", s.last.PromptTokens),
		Int("gen_ai.usage.output_tokens", s.last.GenerationTokens),
	)

	if s.last.PromptTokens > 0 {
		r.tokenUsageMetric.Record(s.ctx, int64(s.last.PromptTokens),
			genaiconv.OperationNameChat,
			providerName,
			genaiconv.TokenTypeInput,
			r.tokenUsageMetric.AttrRequestModel(s.model.name),
		)
	}

	if s.last.GenerationTokens > 0 {
		r.tokenUsageMetric.Record(s.ctx, int64(s.last.GenerationTokens),
			genaiconv.OperationNameChat,
			providerName,
			genaiconv.TokenTypeOutput,
			r.tokenUsageMetric.AttrRequestModel(s.model.name),
		)
	}

	return err
}
