// Package workflow provides the YAML workflow definitions and the
// sequential executor behind `sheetkit workflow run`.
package workflow

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Workflow represents a complete workflow definition.
type Workflow struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
	Steps   []Step `yaml:"steps" json:"steps"`
}

// Step represents a single action in a workflow.
type Step struct {
	ID        string            `yaml:"id" json:"id"`
	Action    string            `yaml:"action" json:"action"`
	Input     string            `yaml:"input,omitempty" json:"input,omitempty"`
	Range     string            `yaml:"range,omitempty" json:"range,omitempty"`
	To        string            `yaml:"to,omitempty" json:"to,omitempty"`
	Subject   string            `yaml:"subject,omitempty" json:"subject,omitempty"`
	Out       string            `yaml:"out,omitempty" json:"out,omitempty"`
	Options   map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
	OnFailure string            `yaml:"on_failure,omitempty" json:"onFailure,omitempty"`
}

// StepResult holds the output of a completed workflow step. Error is the
// failure message as a string so it survives JSON marshalling.
type StepResult struct {
	StepID string `json:"stepId"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Load reads and parses a workflow YAML file.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workflow file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read workflow file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a workflow from YAML bytes.
func Parse(data []byte) (*Workflow, error) {
	var w Workflow
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("invalid workflow YAML: %w", err)
	}

	if err := validate(&w); err != nil {
		return nil, err
	}

	return &w, nil
}

func validate(w *Workflow) error {
	if w.Name == "" {
		return fmt.Errorf("workflow is missing a 'name' field")
	}

	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow %q has no steps defined", w.Name)
	}

	seen := make(map[string]bool)
	for i, step := range w.Steps {
		if step.ID == "" {
			return fmt.Errorf("step %d is missing an 'id' field", i+1)
		}
		if seen[step.ID] {
			return fmt.Errorf("duplicate step ID %q — each step must have a unique ID", step.ID)
		}
		seen[step.ID] = true

		if step.Action == "" {
			return fmt.Errorf("step %q is missing an 'action' field", step.ID)
		}
	}

	return nil
}
