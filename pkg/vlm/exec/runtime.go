package exec

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrianliechti/wingman-docling/pkg/imaging"
	"github.com/adrianliechti/wingman-docling/pkg/vlm"
)

var _ vlm.Runtime = (*Runtime)(nil)

// Runtime starts one generator process per generation and streams its
// standard output line by line.
type Runtime struct {
	*Config
}

func New(command string, options ...Option) (*Runtime, error) {
	if command == "" {
		return nil, errors.New("exec runtime requires a command")
	}

	cfg := &Config{
		command: command,
	}

	for _, option := range options {
		option(cfg)
	}

	cfg.ensureDefaults()

	if _, err := ParseFormat(string(cfg.format)); err != nil {
		return nil, err
	}

	return &Runtime{
		Config: cfg,
	}, nil
}

func (r *Runtime) Load(ctx context.Context, path string) (vlm.Model, vlm.Processor, error) {
	info, err := os.Stat(path)

	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", vlm.ErrModelNotFound, path)
	}

	model := &Model{
		runtime: r,
		path:    path,
	}

	if r.template == "" {
		return model, vlm.PassthroughProcessor{}, nil
	}

	return model, vlm.NewTemplateProcessor(r.template), nil
}

func (r *Runtime) LoadConfig(ctx context.Context, path string) (*vlm.ModelConfig, error) {
	return vlm.ReadConfig(path)
}

type Model struct {
	runtime *Runtime
	path    string
}

func (m *Model) Name() string {
	return filepath.Base(filepath.Clean(m.path))
}

func (m *Model) Generate(ctx context.Context, prompt string, images []image.Image, options *vlm.GenerateOptions) (vlm.Stream, error) {
	if options == nil {
		options = new(vlm.GenerateOptions)
	}

	maxTokens := options.MaxTokens

	if maxTokens <= 0 {
		maxTokens = vlm.DefaultMaxTokens
	}

	var imagePath string

	if len(images) > 0 {
		path, err := m.writeImage(images[0])

		if err != nil {
			return nil, err
		}

		imagePath = path
	}

	replacer := strings.NewReplacer(
		"{model}", m.path,
		"{image}", imagePath,
		"{prompt}", prompt,
		"{max_tokens}", strconv.Itoa(maxTokens),
	)

	args := make([]string, len(m.runtime.args))

	for i, arg := range m.runtime.args {
		args[i] = replacer.Replace(arg)
	}

	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, m.runtime.command, args...)
	cmd.Stderr = m.runtime.stderr

	if m.runtime.template != "" {
		cmd.Env = append(os.Environ(), "SIDECAR_PROMPT_FORMATTED=1")
	}

	stdout, err := cmd.StdoutPipe()

	if err != nil {
		cancel()
		removeFile(imagePath)

		return nil, err
	}

	if err := cmd.Start(); err != nil {
		cancel()
		removeFile(imagePath)

		return nil, err
	}

	return &Stream{
		cmd:    cmd,
		cancel: cancel,

		format: m.runtime.format,
		start:  m.runtime.start,

		reader: bufio.NewReader(stdout),
		image:  imagePath,
	}, nil
}

func (m *Model) writeImage(img image.Image) (string, error) {
	data, err := imaging.EncodePNG(img)

	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(m.runtime.tempDir, "docling-*.png")

	if err != nil {
		return "", err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())

		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

// Stream reads the generator output line by line. In FormatJSON every line
// is a chunk. In FormatMLX only the text between the echoed prompt and the
// closing separator is emitted, and statistics lines after it update the
// counters and are emitted as empty chunks.
type Stream struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc

	format Format
	start  string

	reader *bufio.Reader
	image  string

	// separators seen in FormatMLX output
	section int
	started bool

	stats  stats
	done   bool
	closed bool
}

func (s *Stream) Next() (*vlm.Chunk, error) {
	for !s.done {
		line, err := s.reader.ReadString('\n')

		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		if errors.Is(err, io.EOF) {
			s.done = true
		}

		if line == "" {
			continue
		}

		var chunk *vlm.Chunk

		if s.format == FormatMLX {
			chunk = s.parseText(line)
		} else {
			chunk, err = s.parseJSON(line)

			if err != nil {
				return nil, err
			}
		}

		if chunk != nil {
			return chunk, nil
		}
	}

	if err := s.wait(); err != nil {
		return nil, err
	}

	return nil, io.EOF
}

type jsonChunk struct {
	Text string `json:"text"`

	PromptTokens int     `json:"prompt_tokens"`
	PromptTPS    float64 `json:"prompt_tps"`

	GenerationTokens int     `json:"generation_tokens"`
	GenerationTPS    float64 `json:"generation_tps"`

	PeakMemory float64 `json:"peak_memory"`
}

// parseJSON skips lines that are not JSON objects, such as library
// warnings printed to standard output.
func (s *Stream) parseJSON(line string) (*vlm.Chunk, error) {
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(line, "{") {
		return nil, nil
	}

	var c jsonChunk

	if err := json.Unmarshal([]byte(line), &c); err != nil {
		return nil, fmt.Errorf("invalid generator output: %w", err)
	}

	s.stats = stats{
		promptTokens: c.PromptTokens,
		promptTPS:    c.PromptTPS,

		generationTokens: c.GenerationTokens,
		generationTPS:    c.GenerationTPS,

		peakMemory: c.PeakMemory,
	}

	return s.chunk(c.Text), nil
}

func (s *Stream) parseText(line string) *vlm.Chunk {
	if isSeparator(line) {
		s.section++
		return nil
	}

	switch s.section {
	case 0:
		return nil

	case 1:
		if !s.started {
			idx := strings.Index(line, s.start)

			if idx < 0 {
				return nil
			}

			s.started = true
			line = line[idx:]
		}

		return s.chunk(line)
	}

	if s.stats.parse(line) {
		return s.chunk("")
	}

	return nil
}

func (s *Stream) chunk(text string) *vlm.Chunk {
	return &vlm.Chunk{
		Text: text,

		PromptTokens: s.stats.promptTokens,
		PromptTPS:    s.stats.promptTPS,

		GenerationTokens: s.stats.generationTokens,
		GenerationTPS:    s.stats.generationTPS,

		PeakMemory: s.stats.peakMemory,
	}
}

func (s *Stream) wait() error {
	if s.closed {
		return nil
	}

	s.closed = true

	defer removeFile(s.image)
	defer s.cancel()

	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("%s failed: %w", filepath.Base(s.cmd.Path), err)
	}

	return nil
}

// Close stops the process if it is still running and removes the temporary
// image file.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	s.cancel()
	s.cmd.Wait()

	removeFile(s.image)

	return nil
}

func isSeparator(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && strings.Trim(line, "=") == ""
}

func removeFile(path string) {
	if path != "" {
		os.Remove(path)
	}
}
