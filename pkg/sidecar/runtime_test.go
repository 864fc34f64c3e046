package sidecar_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrianliechti/wingman-docling/pkg/vlm/exec"
	"github.com/adrianliechti/wingman-docling/pkg/vlm/openai"

	"github.com/stretchr/testify/require"
)

func TestConvertExecRuntimeMetadata(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"model_type":"idefics3"}`), 0o600))

	generator := filepath.Join(t.TempDir(), "generate.sh")
	require.NoError(t, os.WriteFile(generator, []byte(`#!/bin/sh
echo '{"text":"<doctag><text>hello</text>","prompt_tokens":12,"prompt_tps":100.12345,"generation_tokens":5,"generation_tps":20.5,"peak_memory":1.2}'
echo '{"text":"</doctag>","prompt_tokens":12,"prompt_tps":100.12345,"generation_tokens":6,"generation_tps":21.23456,"peak_memory":1.23456}'
echo '{"text":"","prompt_tokens":99,"prompt_tps":1,"generation_tokens":99,"generation_tps":1,"peak_memory":9}'
`), 0o755))

	runtime, err := exec.New(generator,
		exec.WithArgs("--image", "{image}", "--prompt", "{prompt}"),
		exec.WithTempDir(t.TempDir()),
		exec.WithStderr(io.Discard),
	)
	require.NoError(t, err)

	result, _, code := run(t, runtime, command(t, map[string]any{
		"action":        "convert",
		"model_path":    dir,
		"output_format": "markdown",
	}, pngBytes(t)))

	require.Equal(t, 0, code)
	require.Equal(t, true, result["success"], result["error"])
	require.Equal(t, "hello", result["data"])

	// counters come from the chunk that closed the document
	require.Equal(t, map[string]any{
		"prompt_tokens":             12.0,
		"prompt_tokens_per_sec":     100.123,
		"generation_tokens":         6.0,
		"generation_tokens_per_sec": 21.235,
		"peak_memory_gb":            1.235,
	}, result["metadata"])
}

func TestConvertOpenAIRuntimeMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			StreamOptions struct {
				ContinuousUsageStats bool `json:"continuous_usage_stats"`
			} `json:"stream_options"`
		}

		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.True(t, req.StreamOptions.ContinuousUsageStats)

		w.Header().Set("Content-Type", "text/event-stream")

		for i, delta := range []string{"<doctag>", "<text>hello</text>", "</doctag>"} {
			data, _ := json.Marshal(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion.chunk",
				"created": 0,
				"model":   "granite",
				"choices": []any{
					map[string]any{"index": 0, "delta": map[string]any{"content": delta}, "finish_reason": nil},
				},
				"usage": map[string]any{"prompt_tokens": 7, "completion_tokens": i + 1, "total_tokens": 8 + i},
			})

			fmt.Fprintf(w, "data: %s\n\n", data)
		}

		fmt.Fprint(w, `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":0,"model":"granite","choices":[],"usage":{"prompt_tokens":7,"completion_tokens":50,"total_tokens":57}}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	runtime, err := openai.New(server.URL + "/v1")
	require.NoError(t, err)

	result, _, code := run(t, runtime, command(t, map[string]any{
		"action":        "convert",
		"model_path":    "/models/granite",
		"output_format": "markdown",
	}, pngBytes(t)))

	require.Equal(t, 0, code)
	require.Equal(t, true, result["success"], result["error"])
	require.Equal(t, "hello", result["data"])

	metadata := result["metadata"].(map[string]any)
	require.Equal(t, 7.0, metadata["prompt_tokens"])
	require.Equal(t, 3.0, metadata["generation_tokens"])
}
