package vlm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyChatTemplate(t *testing.T) {
	testCases := []struct {
		name     string
		config   *ModelConfig
		template string
		expected string
	}{
		{
			name:     "smoldocling",
			config:   &ModelConfig{ModelType: "idefics3"},
			expected: "<|im_start|>User:<image>Convert this page to docling.<end_of_utterance>\nAssistant:",
		},
		{
			name: "granite docling",
			config: func() *ModelConfig {
				c := &ModelConfig{ModelType: "idefics3"}
				c.TextConfig.ModelType = "granite"
				return c
			}(),
			expected: "<|start_of_role|>user<|end_of_role|><image>Convert this page to docling.<|end_of_text|>\n<|start_of_role|>assistant<|end_of_role|>",
		},
		{
			name:     "unknown model",
			config:   &ModelConfig{ModelType: "mystery"},
			expected: "<image>Convert this page to docling.",
		},
		{
			name:     "no config",
			expected: "<image>Convert this page to docling.",
		},
		{
			name:     "override",
			config:   &ModelConfig{ModelType: "idefics3"},
			template: "[{{len .Images}}] {{.Prompt}}",
			expected: "[1] Convert this page to docling.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewTemplateProcessor(tc.template)

			result, err := p.ApplyChatTemplate(tc.config, "Convert this page to docling.", 1)
			require.NoError(t, err)
			require.Equal(t, tc.expected, result)
		})
	}
}

func TestApplyChatTemplateInvalid(t *testing.T) {
	p := NewTemplateProcessor("{{.Prompt")

	_, err := p.ApplyChatTemplate(nil, "x", 1)
	require.Error(t, err)
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(`{"model_type":"idefics3","text_config":{"model_type":"granite"},"vocab_size":100}`), 0600))

	config, err := ReadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, "idefics3", config.ModelType)
	require.Equal(t, "granite", config.TextConfig.ModelType)
	require.Equal(t, 100.0, config.Values["vocab_size"])
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig(t.TempDir())
	require.ErrorIs(t, err, ErrModelNotFound)
}
