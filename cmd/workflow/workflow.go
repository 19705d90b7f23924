// Package workflow provides the "sheetkit workflow" commands.
package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/ai"
	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/history"
	"github.com/gridworks/sheetkit/internal/mail"
	"github.com/gridworks/sheetkit/internal/maps"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/qbo"
	"github.com/gridworks/sheetkit/internal/render"
	"github.com/gridworks/sheetkit/internal/sheets"
	"github.com/gridworks/sheetkit/internal/stages"
	"github.com/gridworks/sheetkit/internal/watch"
	"github.com/gridworks/sheetkit/internal/workflow"
	"github.com/gridworks/sheetkit/internal/workflow/actions"
)

// NewCommand returns the workflow command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run and manage YAML workflows",
		Long: `Workflows are YAML files chaining built-in actions: read a range, render
it as HTML, draft an email with AI, move pipeline rows, create estimates.
Step outputs flow into later steps via ${{ steps.<id>.output }}.`,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newHistoryCommand())

	return cmd
}

// resolvePath accepts a path or a bare workflow name from the
// workflows directory.
func resolvePath(cfg *config.Config, arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	dir := cfg.WorkflowsDir()
	for _, ext := range []string{"", ".yaml", ".yml"} {
		candidate := filepath.Join(dir, arg+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return arg
}

// BuildDeps assembles the action dependencies from config and auth
// state. Missing optional pieces (AI key, maps key, QBO realm) leave
// the matching dep nil; the action reports the gap if a step needs it.
func BuildDeps(cmd *cobra.Command, cfg *config.Config) (actions.Deps, error) {
	client, err := auth.RequireAuth(cmd.Context())
	if err != nil {
		return actions.Deps{}, err
	}

	sheetsClient := sheets.NewClient(client)
	deps := actions.Deps{
		SpreadsheetID: cfg.SpreadsheetID,
		Sender:        cfg.Sender,
		Sheets:        sheetsClient,
		Renderer:      render.NewRenderer(sheetsClient),
		Mail:          mail.NewClient(client),
	}

	if key, err := config.GetAPIKey(cfg.Provider); err == nil {
		if provider, err := ai.NewProvider(cfg.Provider, cfg.Model, key); err == nil {
			deps.AI = provider
		}
	}
	if key, err := config.GetAPIKey("maps"); err == nil {
		deps.Maps = maps.NewClient(key)
	}
	if cfg.QuickBooks.RealmID != "" {
		deps.QBO = qbo.NewClient(client, cfg.QuickBooks.RealmID, cfg.QuickBooks.Environment)
	}
	if len(cfg.Stages.Rules) > 0 {
		rules := make([]stages.Rule, 0, len(cfg.Stages.Rules))
		for _, s := range cfg.Stages.Rules {
			rules = append(rules, stages.Rule{Name: s.Name, Value: s.Value, Destination: s.Destination})
		}
		deps.Stages = stages.NewMover(sheetsClient, cfg.SpreadsheetID, rules)
	}

	return deps, nil
}

func newRunCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <workflow>",
		Short: "Run a workflow by path or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			wf, err := workflow.Load(resolvePath(cfg, args[0]))
			if err != nil {
				return err
			}

			deps, err := BuildDeps(cmd, cfg)
			if err != nil {
				return err
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			exec := workflow.NewExecutor(verbose)
			exec.SetDryRun(dryRun)
			actions.RegisterAll(exec, deps)

			result, runErr := exec.Run(cmd.Context(), wf)

			record := history.Record{
				RunID:      result.RunID,
				Workflow:   result.Workflow,
				Started:    result.Started,
				DurationMs: result.Duration.Milliseconds(),
				Steps:      len(result.Steps),
				DryRun:     dryRun,
			}
			if runErr != nil {
				record.Error = runErr.Error()
			}
			store := history.DefaultStore()
			store.Record(record)
			_ = store.Rotate()

			if runErr != nil {
				return runErr
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("workflow run", result)
			}

			color.New(color.FgGreen).Printf("Workflow %q finished: %d step(s) in %s\n",
				result.Workflow, len(result.Steps), result.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Skip AI and mutating steps")
	return cmd
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow>",
		Short: "Check a workflow definition without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			path := resolvePath(cfg, args[0])
			wf, err := workflow.Load(path)
			if err != nil {
				return err
			}

			color.New(color.FgGreen).Printf("✓ %s: %q, %d step(s)\n", path, wf.Name, len(wf.Steps))
			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflows in the workflows directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			dir := cfg.WorkflowsDir()
			entries, err := os.ReadDir(dir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Printf("No workflows directory yet — create %s and add .yaml files\n", dir)
					return nil
				}
				return err
			}

			var names []string
			for _, e := range entries {
				if e.IsDir() || !watch.IsWorkflowFile(e.Name()) {
					continue
				}
				names = append(names, e.Name())
			}
			sort.Strings(names)

			if len(names) == 0 {
				fmt.Printf("No workflows in %s\n", dir)
				return nil
			}
			for _, name := range names {
				wf, err := workflow.Load(filepath.Join(dir, name))
				if err != nil {
					fmt.Printf("%s\t(invalid: %v)\n", name, err)
					continue
				}
				fmt.Printf("%s\t%s\t%d step(s)\n", strings.TrimSuffix(name, filepath.Ext(name)), wf.Name, len(wf.Steps))
			}
			return nil
		},
	}
}

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent workflow runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := history.DefaultStore()
			records, err := store.Tail(limit)
			if err != nil {
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("workflow history", records)
			}

			if len(records) == 0 {
				fmt.Println("No runs recorded yet")
				return nil
			}
			for _, r := range records {
				status := color.GreenString("ok")
				if r.Error != "" {
					status = color.RedString("failed: %s", r.Error)
				}
				if r.DryRun {
					status += " (dry-run)"
				}
				fmt.Printf("%s  %-20s %4dms  %s\n",
					r.Started.Format("2006-01-02 15:04"), r.Workflow, r.DurationMs, status)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}
