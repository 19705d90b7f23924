// Package watch provides the "sheetkit watch" workflow-reload commands.
package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdworkflow "github.com/gridworks/sheetkit/cmd/workflow"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/watch"
	"github.com/gridworks/sheetkit/internal/workflow"
	"github.com/gridworks/sheetkit/internal/workflow/actions"
)

// NewCommand returns the watch command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the workflows directory for changes",
		Long: `Watch the workflows directory and react when a definition changes.
By default changed workflows are re-validated; with --run they are
executed. Editor write bursts are debounced.`,
	}

	cmd.AddCommand(newStartCommand())
	cmd.AddCommand(newStopCommand())
	cmd.AddCommand(newStatusCommand())

	return cmd
}

func newStartCommand() *cobra.Command {
	var (
		dir    string
		run    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start watching for workflow changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.WorkflowsDir()
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("could not create workflows directory: %w", err)
			}

			if pid, _ := watch.ReadPIDFile(dir); pid != 0 {
				return fmt.Errorf("a watcher is already running (pid %d) — run: sheetkit watch stop", pid)
			}

			var deps actions.Deps
			if run {
				deps, err = cmdworkflow.BuildDeps(cmd, cfg)
				if err != nil {
					return err
				}
			}

			handler := func(ctx context.Context, path string) error {
				wf, err := workflow.Load(path)
				if err != nil {
					return err
				}
				if !run {
					fmt.Printf("✓ %s: %q, %d step(s)\n", filepath.Base(path), wf.Name, len(wf.Steps))
					return nil
				}
				verbose, _ := cmd.Flags().GetBool("verbose")
				exec := workflow.NewExecutor(verbose)
				exec.SetDryRun(dryRun)
				actions.RegisterAll(exec, deps)
				result, err := exec.Run(ctx, wf)
				if err != nil {
					return err
				}
				color.New(color.FgGreen).Printf("Ran %q: %d step(s)\n", result.Workflow, len(result.Steps))
				return nil
			}

			watcher, err := watch.NewWatcher(dir, handler)
			if err != nil {
				return err
			}

			if err := watch.WritePIDFile(dir); err != nil {
				return fmt.Errorf("could not write pid file: %w", err)
			}
			defer watch.RemovePIDFile(dir)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Watching %s (Ctrl+C to stop)\n", dir)
			if err := watcher.Start(ctx); err != nil && err != context.Canceled {
				return err
			}
			fmt.Println("Watcher stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to watch (default from config)")
	cmd.Flags().BoolVar(&run, "run", false, "Run changed workflows instead of validating")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "With --run, skip AI and mutating steps")
	return cmd
}

func newStopCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.WorkflowsDir()
			}

			pid, err := watch.ReadPIDFile(dir)
			if err != nil {
				return err
			}
			if pid == 0 {
				fmt.Println("No watcher running")
				return nil
			}

			proc, err := os.FindProcess(pid)
			if err == nil {
				if err := proc.Signal(syscall.SIGTERM); err != nil {
					// Stale pid file from a crashed watcher.
					fmt.Printf("Watcher pid %d is gone — cleaning up\n", pid)
				}
			}
			if err := watch.RemovePIDFile(dir); err != nil {
				return err
			}
			fmt.Printf("Stopped watcher (pid %d)\n", pid)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory being watched (default from config)")
	return cmd
}

func newStatusCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a watcher is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.WorkflowsDir()
			}

			pid, err := watch.ReadPIDFile(dir)
			if err != nil {
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("watch status", map[string]any{
					"dir":     dir,
					"running": pid != 0,
					"pid":     pid,
				})
			}

			if pid == 0 {
				fmt.Printf("Not watching %s\n", dir)
				return nil
			}
			fmt.Printf("Watching %s (pid %d)\n", dir, pid)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory being watched (default from config)")
	return cmd
}
