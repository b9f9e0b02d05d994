// Package jobs runs YAML-defined sequences of ask steps against a workbook.
package jobs

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/klytics/sheetai/internal/bridge"
)

// Job is one workbook and the steps to run against it.
type Job struct {
	Name     string `yaml:"name" json:"name"`
	Workbook string `yaml:"workbook" json:"workbook"`
	// Output saves the result to a new file instead of overwriting Workbook.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
	Steps  []Step `yaml:"steps" json:"steps"`
}

// Step is a single prompt. Source uses the same forms as ParseSource
// ("table:Sales", "sheet:Data", "Data!A1:C9").
type Step struct {
	ID         string `yaml:"id" json:"id"`
	Prompt     string `yaml:"prompt" json:"prompt"`
	Source     string `yaml:"source" json:"source"`
	PasteRange string `yaml:"paste_range,omitempty" json:"pasteRange,omitempty"`
	NewSheet   bool   `yaml:"new_sheet,omitempty" json:"newSheet,omitempty"`
	OnFailure  string `yaml:"on_failure,omitempty" json:"onFailure,omitempty"`
}

// LoadJob reads and parses a job YAML file. Relative workbook and output
// paths are resolved against the file's directory.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read job file %s: %w", path, err)
	}

	j, err := ParseJob(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	j.Workbook = relativeTo(dir, j.Workbook)
	if j.Output != "" {
		j.Output = relativeTo(dir, j.Output)
	}
	return j, nil
}

// ParseJob parses a job from YAML bytes.
func ParseJob(data []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("invalid job YAML: %w", err)
	}

	if err := validateJob(&j); err != nil {
		return nil, err
	}

	return &j, nil
}

func validateJob(j *Job) error {
	if j.Name == "" {
		return fmt.Errorf("job is missing a 'name' field")
	}
	if j.Workbook == "" {
		return fmt.Errorf("job %q is missing a 'workbook' field", j.Name)
	}
	if len(j.Steps) == 0 {
		return fmt.Errorf("job %q has no steps defined", j.Name)
	}

	seen := make(map[string]bool)
	for i, step := range j.Steps {
		if step.ID == "" {
			return fmt.Errorf("step %d is missing an 'id' field", i+1)
		}
		if seen[step.ID] {
			return fmt.Errorf("duplicate step ID %q — each step must have a unique ID", step.ID)
		}
		seen[step.ID] = true

		if step.Prompt == "" {
			return fmt.Errorf("step %q is missing a 'prompt' field", step.ID)
		}
		if step.Source == "" {
			return fmt.Errorf("step %q is missing a 'source' field — use sheet: for the active sheet", step.ID)
		}
		if _, err := bridge.ParseSource(step.Source); err != nil {
			return fmt.Errorf("step %q: %w", step.ID, err)
		}
		if step.OnFailure != "" && step.OnFailure != "skip" && step.OnFailure != "stop" {
			return fmt.Errorf("step %q: on_failure must be 'skip' or 'stop', got %q", step.ID, step.OnFailure)
		}
	}

	return nil
}

func relativeTo(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
