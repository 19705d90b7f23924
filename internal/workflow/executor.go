package workflow

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionFunc is the signature for workflow action handlers.
type ActionFunc func(ctx context.Context, step Step, input string) (string, error)

// Executor runs workflow steps sequentially, resolving variable
// interpolation between steps.
type Executor struct {
	actions map[string]ActionFunc
	results map[string]*StepResult
	verbose bool
	dryRun  bool
}

// NewExecutor creates a new workflow executor with the given options.
func NewExecutor(verbose bool) *Executor {
	return &Executor{
		actions: make(map[string]ActionFunc),
		results: make(map[string]*StepResult),
		verbose: verbose,
	}
}

// SetDryRun enables dry-run mode. Read-only steps execute normally; AI and
// mutating steps are skipped with a description of what they would do.
func (e *Executor) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// RegisterAction adds an action handler to the executor's registry.
func (e *Executor) RegisterAction(name string, fn ActionFunc) {
	e.actions[name] = fn
}

// RunResult describes one completed workflow run.
type RunResult struct {
	RunID    string        `json:"runId"`
	Workflow string        `json:"workflow"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Steps    []StepResult  `json:"steps"`
}

// Run executes all steps in the workflow sequentially.
func (e *Executor) Run(ctx context.Context, w *Workflow) (*RunResult, error) {
	run := &RunResult{
		RunID:    uuid.New().String(),
		Workflow: w.Name,
		Started:  time.Now(),
	}
	defer func() { run.Duration = time.Since(run.Started) }()

	if e.verbose {
		fmt.Printf("Running workflow: %s (v%s) run %s\n", w.Name, w.Version, run.RunID)
		if e.dryRun {
			fmt.Println("  (dry-run mode — AI and mutating steps will be skipped)")
		}
	}

	for i, step := range w.Steps {
		if e.verbose {
			fmt.Printf("[%d/%d] Running step: %s (%s)\n", i+1, len(w.Steps), step.ID, step.Action)
		}

		resolvedStep := e.resolveStepVariables(step)

		if e.dryRun && skippedInDryRun(resolvedStep.Action) {
			input := resolvedStep.Input
			msg := fmt.Sprintf("[DRY-RUN] Would call %s with %d chars of input", resolvedStep.Action, len(input))
			if e.verbose {
				fmt.Printf("  %s\n", msg)
				if preview := truncateStr(input, 100); preview != "" {
					fmt.Printf("  Input preview: %s\n", preview)
				}
				if opts := resolvedStep.Options; len(opts) > 0 {
					fmt.Printf("  Options: %v\n", opts)
				}
			}
			result := StepResult{StepID: resolvedStep.ID, Output: msg}
			run.Steps = append(run.Steps, result)
			e.results[resolvedStep.ID] = &result
			continue
		}

		action, ok := e.actions[resolvedStep.Action]
		if !ok {
			err := fmt.Errorf("unknown action %q in step %q — registered actions: %v",
				resolvedStep.Action, resolvedStep.ID, e.actionNames())

			if resolvedStep.OnFailure == "skip" {
				if e.verbose {
					fmt.Printf("  Skipping step %s: %s\n", resolvedStep.ID, err)
				}
				result := StepResult{StepID: resolvedStep.ID, Error: err.Error()}
				run.Steps = append(run.Steps, result)
				e.results[resolvedStep.ID] = &result
				continue
			}
			return run, err
		}

		start := time.Now()
		output, err := action(ctx, resolvedStep, resolvedStep.Input)
		duration := time.Since(start)

		result := StepResult{
			StepID: resolvedStep.ID,
			Output: output,
		}
		if err != nil {
			result.Error = err.Error()
		}
		run.Steps = append(run.Steps, result)
		e.results[resolvedStep.ID] = &result

		if e.verbose {
			fmt.Printf("  Completed in %s\n", duration.Round(time.Millisecond))
		}

		if err != nil {
			if resolvedStep.OnFailure == "skip" {
				if e.verbose {
					fmt.Printf("  Step %s failed (skipping): %s\n", resolvedStep.ID, err)
				}
				continue
			}
			return run, fmt.Errorf("step %q failed: %w", resolvedStep.ID, err)
		}
	}

	return run, nil
}

// mutatingActions write to external systems and are skipped in dry-run mode
// along with ai.* actions.
var mutatingActions = map[string]bool{
	"mail.send":    true,
	"sheet.append": true,
	"stage.move":   true,
	"qbo.estimate": true,
}

func skippedInDryRun(action string) bool {
	return strings.HasPrefix(action, "ai.") || mutatingActions[action]
}

var interpolationPattern = regexp.MustCompile(`\$\{\{\s*([^}]+)\s*\}\}`)

func (e *Executor) resolveStepVariables(step Step) Step {
	resolved := step
	resolved.Input = e.interpolate(step.Input)
	resolved.Range = e.interpolate(step.Range)
	resolved.To = e.interpolate(step.To)
	resolved.Subject = e.interpolate(step.Subject)
	resolved.Out = e.interpolate(step.Out)

	if resolved.Options != nil {
		newOpts := make(map[string]string, len(resolved.Options))
		for k, v := range resolved.Options {
			newOpts[k] = e.interpolate(v)
		}
		resolved.Options = newOpts
	}

	return resolved
}

func (e *Executor) interpolate(s string) string {
	return interpolationPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := interpolationPattern.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		expr := strings.TrimSpace(inner[1])

		// steps.<id>.output
		if strings.HasPrefix(expr, "steps.") {
			parts := strings.Split(expr, ".")
			if len(parts) >= 3 && parts[2] == "output" {
				stepID := parts[1]
				if result, ok := e.results[stepID]; ok {
					return result.Output
				}
			}
		}

		if expr == "date.today" {
			return time.Now().Format("2006-01-02")
		}

		if expr == "date.now" || expr == "date.timestamp" {
			return time.Now().Format(time.RFC3339)
		}

		if strings.HasPrefix(expr, "env.") {
			varName := strings.TrimPrefix(expr, "env.")
			return os.Getenv(varName)
		}

		return match
	})
}

func (e *Executor) actionNames() []string {
	names := make([]string, 0, len(e.actions))
	for name := range e.actions {
		names = append(names, name)
	}
	return names
}

func truncateStr(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
