package otel

import (
	"bytes"
	"context"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/adrianliechti/wingman-docling/pkg/vlm"

	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	chunks []*vlm.Chunk
	closed bool
}

func (r *fakeRuntime) Load(ctx context.Context, path string) (vlm.Model, vlm.Processor, error) {
	return r, vlm.NewTemplateProcessor(""), nil
}

func (r *fakeRuntime) LoadConfig(ctx context.Context, path string) (*vlm.ModelConfig, error) {
	return &vlm.ModelConfig{ModelType: "idefics3"}, nil
}

func (r *fakeRuntime) Generate(ctx context.Context, prompt string, images []image.Image, options *vlm.GenerateOptions) (vlm.Stream, error) {
	return r, nil
}

func (r *fakeRuntime) Next() (*vlm.Chunk, error) {
	if len(r.chunks) == 0 {
		return nil, io.EOF
	}

	chunk := r.chunks[0]
	r.chunks = r.chunks[1:]

	return chunk, nil
}

func (r *fakeRuntime) Close() error {
	r.closed = true
	return nil
}

func TestRuntime(t *testing.T) {
	inner := &fakeRuntime{
		chunks: []*vlm.Chunk{
			{Text: "<doctag>"},
			{Text: "</doctag>", PromptTokens: 3, GenerationTokens: 2},
		},
	}

	runtime := NewRuntime("test", inner)

	model, _, err := runtime.Load(context.Background(), "/models/granite-docling")
	require.NoError(t, err)
	require.Equal(t, "granite-docling", model.(interface{ Name() string }).Name())

	config, err := runtime.LoadConfig(context.Background(), "/models/granite-docling")
	require.NoError(t, err)
	require.Equal(t, "idefics3", config.ModelType)

	stream, err := model.Generate(context.Background(), "p", nil, nil)
	require.NoError(t, err)

	generation, err := vlm.Generate(stream.Next, "</doctag>")
	require.NoError(t, err)
	require.Equal(t, "<doctag></doctag>", generation.Text)
	require.Equal(t, 2, generation.Last.GenerationTokens)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	require.True(t, inner.closed)
}

func TestHandlerBridges(t *testing.T) {
	if EnableDebug {
		t.Skip("debug enabled")
	}

	var info, debug bytes.Buffer

	logger := slog.New(newHandler(&info,
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)).With("component", "test")

	logger.Debug("details")
	logger.Info("hello", "key", "value")

	require.NotContains(t, info.String(), "details")
	require.Contains(t, info.String(), "msg=hello")
	require.Contains(t, info.String(), "component=test")
	require.Contains(t, info.String(), "key=value")

	require.Contains(t, debug.String(), "msg=details")
	require.Contains(t, debug.String(), "msg=hello")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	NewLogger(&buf).Info("started", "component", "docling-vlm-sidecar")

	require.Contains(t, buf.String(), "msg=started")
	require.Contains(t, buf.String(), "component=docling-vlm-sidecar")
}

func TestSetupDisabled(t *testing.T) {
	if EnableTelemetry {
		t.Skip("telemetry enabled")
	}

	shutdown, err := Setup(context.Background(), "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
