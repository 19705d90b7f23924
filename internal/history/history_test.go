package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return &Store{Path: filepath.Join(t.TempDir(), "history.jsonl")}
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)

	s.Record(Record{RunID: "r1", Workflow: "leads", Started: time.Now(), DurationMs: 120, Steps: 3})
	s.Record(Record{RunID: "r2", Workflow: "mileage", Started: time.Now(), DurationMs: 80, Steps: 2, Error: "step failed"})

	records, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Workflow != "leads" || records[1].Workflow != "mileage" {
		t.Errorf("unexpected order: %q, %q", records[0].Workflow, records[1].Workflow)
	}
	if records[1].Error != "step failed" {
		t.Errorf("error not persisted: %q", records[1].Error)
	}
}

func TestListMissingFile(t *testing.T) {
	s := testStore(t)
	records, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %d", len(records))
	}
}

func TestListSkipsCorruptLines(t *testing.T) {
	s := testStore(t)
	s.Record(Record{RunID: "r1", Workflow: "leads"})
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("not json\n")
	f.Close()
	s.Record(Record{RunID: "r2", Workflow: "leads"})

	records, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
}

func TestTail(t *testing.T) {
	s := testStore(t)
	for i := 0; i < 5; i++ {
		s.Record(Record{RunID: string(rune('a' + i)), Workflow: "leads"})
	}
	records, err := s.Tail(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].RunID != "d" || records[1].RunID != "e" {
		t.Errorf("unexpected tail: %q, %q", records[0].RunID, records[1].RunID)
	}
}

func TestSummary(t *testing.T) {
	s := testStore(t)
	s.Record(Record{RunID: "r1", Workflow: "leads", DurationMs: 100})
	s.Record(Record{RunID: "r2", Workflow: "leads", DurationMs: 200})
	s.Record(Record{RunID: "r3", Workflow: "stages", DurationMs: 300, Error: "boom"})

	stats, err := s.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRuns != 3 {
		t.Errorf("TotalRuns = %d, want 3", stats.TotalRuns)
	}
	if stats.ByWorkflow["leads"] != 2 {
		t.Errorf("leads runs = %d, want 2", stats.ByWorkflow["leads"])
	}
	if stats.AvgDuration != 200 {
		t.Errorf("AvgDuration = %v, want 200", stats.AvgDuration)
	}
	if stats.Failures != 1 {
		t.Errorf("Failures = %d, want 1", stats.Failures)
	}
}

func TestRotate(t *testing.T) {
	s := testStore(t)
	s.MaxSize = 10
	s.Record(Record{RunID: "r1", Workflow: "leads"})
	if err := s.Rotate(); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("expected truncated file, size = %d", info.Size())
	}
}

func TestClear(t *testing.T) {
	s := testStore(t)
	if err := s.Clear(); err != nil {
		t.Errorf("clear on missing file: %v", err)
	}
	s.Record(Record{RunID: "r1", Workflow: "leads"})
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	records, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(records))
	}
}
