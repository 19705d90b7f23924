package cmd

import (
	"bytes"
	"strings"
	"testing"
)

// runRoot executes the root command in-process and returns combined output.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestAllCommandsRegistered(t *testing.T) {
	commands := []string{
		"auth", "config", "sheet", "render", "export",
		"leads", "draft", "stages", "mileage", "estimate",
		"workflow", "watch", "drive", "shell",
		"doctor", "completion", "version",
	}

	out, err := runRoot(t, "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	for _, name := range commands {
		if !strings.Contains(out, name) {
			t.Errorf("command %q missing from --help output", name)
		}
	}
}

func TestSubcommandHelpDoesNotPanic(t *testing.T) {
	for _, args := range [][]string{
		{"sheet", "--help"},
		{"render", "--help"},
		{"workflow", "--help"},
		{"draft", "templates", "--help"},
		{"mileage", "--help"},
	} {
		if _, err := runRoot(t, args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
}

func TestUnknownCommandFails(t *testing.T) {
	if _, err := runRoot(t, "frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestGlobalFlagsParse(t *testing.T) {
	if _, err := runRoot(t, "--json", "--no-color", "version"); err != nil {
		t.Fatalf("global flags rejected: %v", err)
	}
}
