package shell

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

func newTestSession() *Session {
	s, _ := NewSession()
	return s
}

func TestCompleteTopLevel(t *testing.T) {
	s := newTestSession()
	matches := s.Complete("wo")
	if len(matches) != 1 || matches[0] != "workflow" {
		t.Errorf("Complete(wo) = %v, want [workflow]", matches)
	}
}

func TestCompleteEmptyReturnsAll(t *testing.T) {
	s := newTestSession()
	matches := s.Complete("")
	if len(matches) != len(s.KnownCommands) {
		t.Errorf("got %d matches, want %d", len(matches), len(s.KnownCommands))
	}
}

func TestCompleteSubcommand(t *testing.T) {
	s := newTestSession()
	matches := s.Complete("workflow ru")
	if len(matches) != 1 || matches[0] != "run" {
		t.Errorf("Complete(workflow ru) = %v, want [run]", matches)
	}
}

func TestCompleteFlags(t *testing.T) {
	s := newTestSession()
	matches := s.Complete("sheet read -")
	found := false
	for _, m := range matches {
		if m == "--dry-run" {
			found = true
		}
	}
	if !found {
		t.Errorf("Complete(sheet read -) = %v, want --dry-run included", matches)
	}
}

func TestEvalRunsCommand(t *testing.T) {
	s := newTestSession()
	old := DefaultRunner
	defer func() { DefaultRunner = old }()

	var gotArgs []string
	DefaultRunner = func(ctx context.Context, args []string, stdout, stderr io.Writer) error {
		gotArgs = args
		fmt.Fprint(stdout, "ok")
		return nil
	}

	out, err := s.Eval(context.Background(), "sheet read --range A1:B2")
	if err != nil {
		t.Fatal(err)
	}
	if out != "ok" {
		t.Errorf("output = %q, want ok", out)
	}
	want := "sheet read --range A1:B2"
	if strings.Join(gotArgs, " ") != want {
		t.Errorf("args = %v, want %q", gotArgs, want)
	}
	if s.LastOutput != "ok" {
		t.Errorf("LastOutput = %q, want ok", s.LastOutput)
	}
}

func TestEvalSurfacesStderr(t *testing.T) {
	s := newTestSession()
	old := DefaultRunner
	defer func() { DefaultRunner = old }()

	DefaultRunner = func(ctx context.Context, args []string, stdout, stderr io.Writer) error {
		fmt.Fprintln(stderr, "could not reach spreadsheet")
		return fmt.Errorf("boom")
	}

	_, err := s.Eval(context.Background(), "sheet read")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "could not reach spreadsheet" {
		t.Errorf("err = %q, want stderr text", err)
	}
}

func TestEvalWithoutRunner(t *testing.T) {
	s := newTestSession()
	old := DefaultRunner
	defer func() { DefaultRunner = old }()
	DefaultRunner = nil

	if _, err := s.Eval(context.Background(), "version"); err == nil {
		t.Fatal("expected error when runner is not configured")
	}
}

func TestEvalEmptyCommand(t *testing.T) {
	s := newTestSession()
	old := DefaultRunner
	defer func() { DefaultRunner = old }()
	DefaultRunner = func(ctx context.Context, args []string, stdout, stderr io.Writer) error {
		t.Error("runner should not be called for empty input")
		return nil
	}

	out, err := s.Eval(context.Background(), "   ")
	if err != nil || out != "" {
		t.Errorf("Eval(blank) = %q, %v, want empty", out, err)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{30, "30s"},
		{90, "1m 30s"},
		{125, "2m 5s"},
	}
	for _, c := range cases {
		d := time.Duration(c.seconds) * time.Second
		if got := formatDuration(d); got != c.want {
			t.Errorf("formatDuration(%ds) = %q, want %q", c.seconds, got, c.want)
		}
	}
}
