package config

import (
	"bytes"
	"os"

	"github.com/adrianliechti/wingman-docling/pkg/vlm"

	"gopkg.in/yaml.v3"
)

type Config struct {
	MaxTokens int

	runtime vlm.Runtime
}

// Parse reads the sidecar configuration. An empty path yields the
// defaults: an OpenAI compatible runtime on localhost.
func Parse(path string) (*Config, error) {
	file := &configFile{}

	if path != "" {
		f, err := parseFile(path)

		if err != nil {
			return nil, err
		}

		file = f
	}

	c := &Config{
		MaxTokens: vlm.DefaultMaxTokens,
	}

	if file.Generation.MaxTokens > 0 {
		c.MaxTokens = file.Generation.MaxTokens
	}

	if err := c.registerRuntime(file); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Runtime() vlm.Runtime {
	return c.runtime
}

type configFile struct {
	Runtime    runtimeConfig    `yaml:"runtime"`
	Generation generationConfig `yaml:"generation"`
}

type generationConfig struct {
	MaxTokens int    `yaml:"max_tokens"`
	Template  string `yaml:"template"`
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
