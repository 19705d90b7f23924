package progress

import (
	"os"
	"testing"
	"time"
)

func TestNewWithEnvDisable(t *testing.T) {
	t.Setenv("SHEETKIT_NO_PROGRESS", "1")
	bar := New("test", 10)
	if bar.Enabled {
		t.Error("expected bar to be disabled with SHEETKIT_NO_PROGRESS=1")
	}
}

func TestNewWithJSONDisable(t *testing.T) {
	t.Setenv("SHEETKIT_JSON", "true")
	bar := New("test", 10)
	if bar.Enabled {
		t.Error("expected bar to be disabled with SHEETKIT_JSON=true")
	}
}

func TestBarIncrement(t *testing.T) {
	bar := &Bar{Total: 10, Width: 40, Enabled: false}
	bar.Increment("test")
	if bar.Current != 1 {
		t.Errorf("expected current=1, got %d", bar.Current)
	}
	bar.Increment("test2")
	if bar.Current != 2 {
		t.Errorf("expected current=2, got %d", bar.Current)
	}
}

func TestBarOverIncrement(t *testing.T) {
	bar := &Bar{Total: 3, Width: 40, Enabled: false}
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		bar.Increment(s)
	}
	if bar.Current != 3 {
		t.Errorf("expected current capped at 3, got %d", bar.Current)
	}
}

func TestBarSetOverflow(t *testing.T) {
	bar := &Bar{Total: 10, Width: 40, Enabled: false}
	bar.Set(999, "overflow")
	if bar.Current != 10 {
		t.Errorf("expected current capped at 10, got %d", bar.Current)
	}
}

func TestBarPct(t *testing.T) {
	cases := []struct {
		total, current int
		want           float64
	}{
		{10, 0, 0},
		{10, 5, 50},
		{10, 10, 100},
		{0, 0, 0},
	}
	for _, c := range cases {
		bar := &Bar{Total: c.total, Current: c.current, Width: 40, Enabled: false}
		if got := bar.Pct(); got != c.want {
			t.Errorf("Pct() with %d/%d = %.1f, want %.1f", c.current, c.total, got, c.want)
		}
	}
}

func TestDisabledBarDoesNotWrite(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	bar := &Bar{Total: 10, Width: 40, Enabled: false}
	bar.Increment("test")
	bar.Finish("done")

	w.Close()
	os.Stderr = oldStderr

	buf := make([]byte, 1024)
	n, _ := r.Read(buf)
	if n > 0 {
		t.Errorf("disabled bar should not write to stderr, wrote %d bytes", n)
	}
}

func TestSpinnerStartStop(t *testing.T) {
	s := &Spinner{Label: "test", Enabled: true, done: make(chan struct{})}
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop("complete")
}

func TestSpinnerStartStopDisabled(t *testing.T) {
	s := &Spinner{Label: "test", Enabled: false, done: make(chan struct{})}
	s.Start()
	s.Stop("done")
}

func TestSpinnerUpdate(t *testing.T) {
	s := &Spinner{Label: "initial", Enabled: false, done: make(chan struct{})}
	s.Update("updated")
	if s.Label != "updated" {
		t.Errorf("expected label 'updated', got %q", s.Label)
	}
}

func TestNewSpinnerDisabled(t *testing.T) {
	t.Setenv("SHEETKIT_NO_PROGRESS", "1")
	s := NewSpinner("test")
	if s.Enabled {
		t.Error("expected spinner to be disabled")
	}
}
