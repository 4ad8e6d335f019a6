// Package data reads and writes the files the tools share: saved simulation
// results and plan presets.
package data

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"wealth-planner/internal/model"
)

// SavedResult is a simulation result together with the request that
// produced it, so a saved run can be re-rendered or re-submitted later.
type SavedResult struct {
	Plan    string                   `json:"plan"`
	SavedAt string                   `json:"saved_at"` // RFC 3339
	Request *model.SimulationRequest `json:"request,omitempty"`
	Result  *model.SimulationResult  `json:"result"`
}

// SaveResult writes r as indented JSON, creating parent directories.
func SaveResult(path string, r *SavedResult) error {
	if r == nil || r.Result == nil {
		return fmt.Errorf("nothing to save: result is empty")
	}
	if r.SavedAt == "" {
		r.SavedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

// LoadResult reads a file written by SaveResult. A bare service response
// (no envelope) is accepted too.
func LoadResult(path string) (*SavedResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}
	var saved SavedResult
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse result file: %w", err)
	}
	if saved.Result != nil {
		return &saved, nil
	}
	var bare model.SimulationResult
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("failed to parse result file: %w", err)
	}
	if bare.Len() == 0 {
		return nil, fmt.Errorf("result file %s has no timesteps", path)
	}
	return &SavedResult{Result: &bare}, nil
}
