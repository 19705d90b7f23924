package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestIsWorkflowFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"leads.yaml", true},
		{"leads.yml", true},
		{"LEADS.YAML", true},
		{filepath.Join("flows", "mileage.yaml"), true},
		{"notes.txt", false},
		{"leads.yaml.bak", false},
		{".leads.yaml", false},
		{"#leads.yaml", false},
	}
	for _, c := range cases {
		if got := IsWorkflowFile(c.path); got != c.want {
			t.Errorf("IsWorkflowFile(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestNewWatcherRejectsMissingDir(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestNewWatcherRejectsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.yaml")
	if err := os.WriteFile(path, []byte("name: x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWatcher(path, nil); err == nil {
		t.Fatal("expected error for non-directory path")
	}
}

func TestWatcherHandlesDebouncedWrite(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var handled []string
	w, err := NewWatcher(dir, func(ctx context.Context, path string) error {
		mu.Lock()
		handled = append(handled, filepath.Base(path))
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	w.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(ctx)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "leads.yaml")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("name: leads\nsteps: []\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		mu.Lock()
		n := len(handled)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	w.Stop()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 {
		t.Fatalf("handler ran %d times, want 1 (burst should debounce): %v", len(handled), handled)
	}
	if handled[0] != "leads.yaml" {
		t.Errorf("handled %q, want leads.yaml", handled[0])
	}

	st := w.Status()
	if st.Handled != 1 {
		t.Errorf("Status.Handled = %d, want 1", st.Handled)
	}
	if st.Dir != dir {
		t.Errorf("Status.Dir = %q, want %q", st.Dir, dir)
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	pid, err := ReadPIDFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pid != 0 {
		t.Fatalf("expected 0 before writing, got %d", pid)
	}

	if err := WritePIDFile(dir); err != nil {
		t.Fatal(err)
	}
	pid, err = ReadPIDFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}

	if err := RemovePIDFile(dir); err != nil {
		t.Fatal(err)
	}
	if err := RemovePIDFile(dir); err != nil {
		t.Errorf("second remove should be a no-op, got %v", err)
	}
}
