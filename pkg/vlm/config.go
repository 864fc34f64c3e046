package vlm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const ConfigFile = "config.json"

// ModelConfig is the subset of a Hugging Face style config.json needed to
// prepare prompts.
type ModelConfig struct {
	ModelType     string   `json:"model_type"`
	Architectures []string `json:"architectures"`

	TextConfig struct {
		ModelType string `json:"model_type"`
	} `json:"text_config"`

	Values map[string]any `json:"-"`
}

// ReadConfig reads config.json from a model directory.
func ReadConfig(path string) (*ModelConfig, error) {
	data, err := os.ReadFile(filepath.Join(path, ConfigFile))

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s has no %s", ErrModelNotFound, path, ConfigFile)
		}

		return nil, err
	}

	var config ModelConfig

	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	if err := json.Unmarshal(data, &config.Values); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	return &config, nil
}
