// Package modelstore persists trained model artifacts as JSON on disk.
package modelstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"voice-detection/voice"
)

// Save writes the model artifact to path, creating parent directories as
// needed. The file is written to a temp name and renamed so a crash mid-write
// never leaves a truncated artifact behind.
func Save(model *voice.Model, path string) error {
	if err := model.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid model: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize model file: %w", err)
	}
	return nil
}

// Load reads a model artifact and validates it against the current feature
// schema. An artifact trained by an incompatible extractor is refused.
func Load(path string) (*voice.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var model voice.Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", voice.ErrSchemaMismatch, err)
	}
	return &model, nil
}
