package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wealth-planner/internal/config"
	"wealth-planner/internal/model"
)

// PlanEntry describes one preset in a plan directory.
type PlanEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	File        string `json:"file"`
}

// ListPlans returns the *.yaml presets in dir sorted by ID. The ID is the
// file name without extension. Files that fail to parse are skipped.
func ListPlans(dir string) ([]PlanEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan directory: %w", err)
	}
	var out []PlanEntry
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		p, err := config.LoadPlanFile(path)
		if err != nil {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		name := p.Name
		if name == "" {
			name = id
		}
		out = append(out, PlanEntry{ID: id, Name: name, Description: p.Description, File: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadPlan loads preset id from dir, merged over the default plan.
func LoadPlan(dir, id string) (config.PlanConfig, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return config.PlanConfig{}, &model.ValidationError{Field: "plan", Message: fmt.Sprintf("invalid id %q", id)}
	}
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		p, err := config.LoadPlanFile(path)
		if err != nil {
			return config.PlanConfig{}, err
		}
		merged := config.MergePlan(config.DefaultPlan(), p)
		if merged.Name == config.DefaultPlan().Name && p.Name == "" {
			merged.Name = id
		}
		return merged, nil
	}
	return config.PlanConfig{}, fmt.Errorf("plan %q: %w", id, os.ErrNotExist)
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
