package sidecar

import (
	"os"
	"path/filepath"

	"github.com/adrianliechti/wingman-docling/pkg/vlm"
)

const (
	weightsFile    = "weights.npz"
	weightsPattern = "*.safetensors"
)

type ModelStatus struct {
	Path string `json:"path"`

	Exists     bool `json:"exists"`
	HasWeights bool `json:"has_weights"`
	HasConfig  bool `json:"has_config"`

	Ready bool `json:"ready"`
}

type ModelsResult struct {
	Model ModelStatus `json:"model"`
}

// CheckModels inspects a model directory for weights and config without
// loading anything. A missing directory is a normal, not ready result.
func CheckModels(cmd *Command) *Response {
	if err := cmd.Validate(); err != nil {
		return failure(err)
	}

	if cmd.ModelPath == "" {
		return failure(&ParameterError{Name: "model_path"})
	}

	status := InspectModel(cmd.ModelPath)

	return success(ModelsResult{
		Model: status,
	})
}

func InspectModel(path string) ModelStatus {
	path = filepath.Clean(path)

	status := ModelStatus{
		Path: path,
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		status.Exists = true
	}

	if status.Exists {
		status.HasWeights = fileExists(filepath.Join(path, weightsFile)) || hasMatch(path, weightsPattern)
		status.HasConfig = fileExists(filepath.Join(path, vlm.ConfigFile))
	}

	status.Ready = status.Exists && status.HasWeights && status.HasConfig

	return status
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func hasMatch(dir, pattern string) bool {
	entries, err := os.ReadDir(dir)

	if err != nil {
		return false
	}

	for _, e := range entries {
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			return true
		}
	}

	return false
}
