package sidecar

import (
	"errors"
	"math"

	"github.com/adrianliechti/wingman-docling/pkg/vlm"
)

var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrEmptyPayload     = errors.New("No image data provided")
	ErrUnknownAction    = errors.New("unknown action")
	ErrProtocol         = errors.New("protocol error")
)

// ParameterError reports a required command field that is absent.
type ParameterError struct {
	Name string
}

func (e *ParameterError) Error() string {
	return e.Name + " is required"
}

func (e *ParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// FieldError reports a command option of the wrong JSON type.
type FieldError struct {
	Name string
	Type string
}

func (e *FieldError) Error() string {
	return e.Name + " must be a " + e.Type
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidParameter
}

type ActionError struct {
	Action string
}

func (e *ActionError) Error() string {
	action := e.Action

	if action == "" {
		action = "null"
	}

	return "Unknown action: " + action
}

func (e *ActionError) Is(target error) bool {
	return target == ErrUnknownAction
}

// ProtocolError means no valid command could be read at all.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// Response is the envelope for model checks and protocol level failures.
type Response struct {
	Success bool    `json:"success"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
}

// ConvertResponse is the envelope of the convert action. Failures carry a
// null format and no metadata.
type ConvertResponse struct {
	Success  bool      `json:"success"`
	Format   *string   `json:"format"`
	Data     any       `json:"data"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Error    *string   `json:"error"`
}

type Metadata struct {
	PromptTokens       int     `json:"prompt_tokens"`
	PromptTokensPerSec float64 `json:"prompt_tokens_per_sec"`

	GenerationTokens       int     `json:"generation_tokens"`
	GenerationTokensPerSec float64 `json:"generation_tokens_per_sec"`

	PeakMemoryGB float64 `json:"peak_memory_gb"`
}

// newMetadata reports the counters of the last chunk only.
func newMetadata(last *vlm.Chunk) *Metadata {
	if last == nil {
		return &Metadata{}
	}

	return &Metadata{
		PromptTokens:       last.PromptTokens,
		PromptTokensPerSec: round3(last.PromptTPS),

		GenerationTokens:       last.GenerationTokens,
		GenerationTokensPerSec: round3(last.GenerationTPS),

		PeakMemoryGB: round3(last.PeakMemory),
	}
}

func round3(val float64) float64 {
	return math.Round(val*1000) / 1000
}

func success(data any) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

func failure(err error) *Response {
	message := err.Error()

	return &Response{
		Success: false,
		Error:   &message,
	}
}

func convertSuccess(format string, data any, metadata *Metadata) *ConvertResponse {
	return &ConvertResponse{
		Success:  true,
		Format:   &format,
		Data:     data,
		Metadata: metadata,
	}
}

func convertFailure(err error) *ConvertResponse {
	message := err.Error()

	return &ConvertResponse{
		Success: false,
		Error:   &message,
	}
}
