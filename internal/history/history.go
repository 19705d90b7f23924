// Package history keeps a local append-only log of workflow runs so
// `sheetkit workflow history` can show what ran, when, and whether it
// worked. Everything stays on disk under ~/.sheetkit.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Record is one completed workflow run.
type Record struct {
	RunID      string    `json:"run_id"`
	Workflow   string    `json:"workflow"`
	Started    time.Time `json:"started"`
	DurationMs int64     `json:"ms"`
	Steps      int       `json:"steps"`
	DryRun     bool      `json:"dry_run,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Stats aggregates the run log for a quick health view.
type Stats struct {
	TotalRuns   int            `json:"total_runs"`
	ByWorkflow  map[string]int `json:"by_workflow"`
	AvgDuration float64        `json:"avg_duration_ms"`
	Failures    int            `json:"failures"`
}

// Store is a jsonl-backed run log.
type Store struct {
	Path    string
	MaxSize int64
}

const defaultMaxSize = 10 * 1024 * 1024

// DefaultStore returns the store at ~/.sheetkit/history.jsonl.
func DefaultStore() *Store {
	home, _ := os.UserHomeDir()
	return &Store{
		Path:    filepath.Join(home, ".sheetkit", "history.jsonl"),
		MaxSize: defaultMaxSize,
	}
}

// Record appends a run to the log. Best-effort: a broken history file
// never fails the workflow that just ran.
func (s *Store) Record(r Record) {
	_ = os.MkdirAll(filepath.Dir(s.Path), 0755)

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = f.Write(data)
}

// List returns all recorded runs, oldest first. A missing log is an
// empty history, not an error.
func (s *Store) List() ([]Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read run history: %w", err)
	}

	var records []Record
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// Tail returns the most recent n runs, oldest first.
func (s *Store) Tail(n int) ([]Record, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Summary aggregates the run log.
func (s *Store) Summary() (*Stats, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByWorkflow: make(map[string]int)}
	var totalMs int64
	for _, r := range records {
		stats.TotalRuns++
		stats.ByWorkflow[r.Workflow]++
		totalMs += r.DurationMs
		if r.Error != "" {
			stats.Failures++
		}
	}
	if stats.TotalRuns > 0 {
		stats.AvgDuration = float64(totalMs) / float64(stats.TotalRuns)
	}
	return stats, nil
}

// Rotate truncates the log when it outgrows MaxSize.
func (s *Store) Rotate() error {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil
	}
	max := s.MaxSize
	if max == 0 {
		max = defaultMaxSize
	}
	if info.Size() <= max {
		return nil
	}
	return os.Truncate(s.Path, 0)
}

// Clear wipes the run history.
func (s *Store) Clear() error {
	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		return nil
	}
	return os.Truncate(s.Path, 0)
}
