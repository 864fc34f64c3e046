package sidecar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

const (
	ActionCheckModels = "check_models"
	ActionConvert     = "convert"
)

const (
	FormatDocling  = "docling"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

const (
	DefaultOutputFormat = FormatDocling
	DefaultDocumentName = "Document"
	DefaultPrompt       = "Convert this page to docling."
	DefaultImageMode    = "placeholder"
)

// Command is the single request a sidecar process handles. Empty strings
// count as absent and receive the defaults above.
type Command struct {
	Action string `json:"action"`

	ModelPath string `json:"model_path"`

	OutputFormat string `json:"output_format"`
	DocumentName string `json:"document_name"`
	Prompt       string `json:"prompt"`

	ImageMode         string `json:"image_mode"`
	IncludePageImages bool   `json:"include_page_images"`

	invalid error
}

// Validate reports the first option that had the wrong JSON type.
func (c *Command) Validate() error {
	return c.invalid
}

// ParseCommand decodes one command line. Only input that is not a JSON
// object fails here; options of the wrong type surface through Validate so
// the action can still answer with an envelope.
func ParseCommand(line []byte) (*Command, error) {
	line = bytes.TrimSpace(line)

	if !utf8.Valid(line) {
		return nil, &ProtocolError{Message: "Invalid JSON: command is not valid UTF-8"}
	}

	var fields map[string]json.RawMessage

	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, &ProtocolError{Message: "Invalid JSON: " + err.Error()}
	}

	if fields == nil {
		return nil, &ProtocolError{Message: "Invalid JSON: command is not an object"}
	}

	cmd := &Command{
		Action: actionName(fields["action"]),
	}

	for _, f := range []struct {
		name   string
		target *string
	}{
		{"model_path", &cmd.ModelPath},
		{"output_format", &cmd.OutputFormat},
		{"document_name", &cmd.DocumentName},
		{"prompt", &cmd.Prompt},
		{"image_mode", &cmd.ImageMode},
	} {
		cmd.reject(decodeField(fields, f.name, f.target))
	}

	cmd.reject(decodeField(fields, "include_page_images", &cmd.IncludePageImages))

	ensureDefaultCommand(cmd)

	return cmd, nil
}

func (c *Command) reject(err error) {
	if err != nil && c.invalid == nil {
		c.invalid = err
	}
}

// actionName keeps a non-string action as its JSON text, so it can be
// reported back as unknown.
func actionName(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}

	var name string

	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}

	var buf bytes.Buffer

	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}

	return buf.String()
}

func decodeField[T any](fields map[string]json.RawMessage, name string, target *T) error {
	raw, ok := fields[name]

	if !ok || string(raw) == "null" {
		return nil
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return &FieldError{Name: name, Type: fmt.Sprintf("%T", *target)}
	}

	return nil
}

func ensureDefaultCommand(cmd *Command) {
	if cmd.OutputFormat == "" {
		cmd.OutputFormat = DefaultOutputFormat
	}

	if cmd.DocumentName == "" {
		cmd.DocumentName = DefaultDocumentName
	}

	if cmd.Prompt == "" {
		cmd.Prompt = DefaultPrompt
	}

	if cmd.ImageMode == "" {
		cmd.ImageMode = DefaultImageMode
	}
}
