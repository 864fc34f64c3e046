package config

import (
	"errors"
	"strings"

	"github.com/adrianliechti/wingman-docling/pkg/otel"
	"github.com/adrianliechti/wingman-docling/pkg/vlm"
	"github.com/adrianliechti/wingman-docling/pkg/vlm/exec"
	"github.com/adrianliechti/wingman-docling/pkg/vlm/openai"
)

type runtimeConfig struct {
	Type string `yaml:"type"`

	URL   string `yaml:"url"`
	Token string `yaml:"token"`
	Model string `yaml:"model"`

	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Format  string   `yaml:"format"`

	Proxy *proxyConfig `yaml:"proxy"`
}

func (cfg *Config) registerRuntime(f *configFile) error {
	config := f.Runtime

	if config.Type == "" {
		config.Type = "openai"
	}

	runtime, err := createRuntime(config, f.Generation)

	if err != nil {
		return err
	}

	if _, ok := runtime.(otel.Runtime); !ok {
		runtime = otel.NewRuntime(strings.ToLower(config.Type), runtime)
	}

	cfg.runtime = runtime

	return nil
}

func createRuntime(cfg runtimeConfig, generation generationConfig) (vlm.Runtime, error) {
	switch strings.ToLower(cfg.Type) {
	case "openai":
		return openaiRuntime(cfg)

	case "exec":
		return execRuntime(cfg, generation)

	default:
		return nil, errors.New("invalid runtime type: " + cfg.Type)
	}
}

func openaiRuntime(cfg runtimeConfig) (vlm.Runtime, error) {
	var options []openai.Option

	if cfg.Token != "" {
		options = append(options, openai.WithToken(cfg.Token))
	}

	if cfg.Model != "" {
		options = append(options, openai.WithModel(cfg.Model))
	}

	client, err := httpClient(cfg.Proxy)

	if err != nil {
		return nil, err
	}

	options = append(options, openai.WithClient(client))

	url := cfg.URL

	if url == "" {
		url = "http://localhost:8080/v1"
	}

	return openai.New(url, options...)
}

func execRuntime(cfg runtimeConfig, generation generationConfig) (vlm.Runtime, error) {
	format, err := exec.ParseFormat(strings.ToLower(cfg.Format))

	if err != nil {
		return nil, err
	}

	options := []exec.Option{
		exec.WithFormat(format),
	}

	if len(cfg.Args) > 0 {
		options = append(options, exec.WithArgs(cfg.Args...))
	}

	if generation.Template != "" {
		options = append(options, exec.WithTemplate(generation.Template))
	}

	command := cfg.Command

	if command == "" {
		command = exec.DefaultCommand(format)
	}

	return exec.New(command, options...)
}
