package exec

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/adrianliechti/wingman-docling/pkg/doctags"
)

// Format selects how the generator output is read.
type Format string

const (
	// FormatJSON reads one JSON object per line, each carrying the chunk
	// text and the counters so far.
	FormatJSON Format = "json"

	// FormatMLX reads the verbose mlx_vlm.generate output: a banner that
	// echoes the prompt, the generated text and statistics lines after the
	// closing separator.
	FormatMLX Format = "mlx"
)

var ErrInvalidFormat = errors.New("invalid output format")

// StreamScript prints the mlx_vlm stream_generate results as JSON lines.
//
//go:embed stream.py
var StreamScript string

// StreamArgs run StreamScript with python3.
var StreamArgs = []string{
	"-c", StreamScript,
	"--model", "{model}",
	"--image", "{image}",
	"--prompt", "{prompt}",
	"--max-tokens", "{max_tokens}",
}

// GenerateArgs match the mlx_vlm.generate command line.
var GenerateArgs = []string{
	"--model", "{model}",
	"--image", "{image}",
	"--prompt", "{prompt}",
	"--max-tokens", "{max_tokens}",
}

// DefaultCommand returns the generator started for a format when none is
// configured.
func DefaultCommand(format Format) string {
	if format == FormatMLX {
		return "mlx_vlm.generate"
	}

	return "python3"
}

func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case "", FormatJSON:
		return FormatJSON, nil

	case FormatMLX:
		return FormatMLX, nil
	}

	return "", fmt.Errorf("%w: %s", ErrInvalidFormat, value)
}

type Config struct {
	command string
	args    []string
	format  Format

	template string
	start    string
	tempDir  string

	stderr io.Writer
}

type Option func(*Config)

// WithArgs sets the argument list. The placeholders {model}, {image},
// {prompt} and {max_tokens} are substituted per generation.
func WithArgs(args ...string) Option {
	return func(c *Config) {
		c.args = args
	}
}

func WithFormat(format Format) Option {
	return func(c *Config) {
		c.format = format
	}
}

// WithTemplate formats prompts with a Go template before they are handed
// to the generator. Without it the generator applies its own chat template.
func WithTemplate(template string) Option {
	return func(c *Config) {
		c.template = template
	}
}

// WithStartMarker sets where the generated text begins in FormatMLX output,
// after the echoed prompt.
func WithStartMarker(marker string) Option {
	return func(c *Config) {
		c.start = marker
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.tempDir = dir
	}
}

// WithStderr receives the diagnostics of the child process.
func WithStderr(w io.Writer) Option {
	return func(c *Config) {
		c.stderr = w
	}
}

func (c *Config) ensureDefaults() {
	if c.format == "" {
		c.format = FormatJSON
	}

	if len(c.args) == 0 {
		c.args = StreamArgs

		if c.format == FormatMLX {
			c.args = GenerateArgs
		}
	}

	if c.start == "" {
		c.start = doctags.Open
	}

	if c.tempDir == "" {
		c.tempDir = os.TempDir()
	}

	if c.stderr == nil {
		c.stderr = os.Stderr
	}
}
