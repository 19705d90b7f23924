// Package stages provides the "sheetkit stages" pipeline commands.
package stages

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/sheets"
	"github.com/gridworks/sheetkit/internal/stages"
)

// NewCommand returns the stages command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Move pipeline rows between stage sheets",
		Long: `Sweep the pipeline sheet and move each row whose status column matches
a stage rule to that rule's destination sheet. Rules live in the config
file under stages.rules.`,
	}

	cmd.AddCommand(newMoveCommand())
	cmd.AddCommand(newRulesCommand())

	return cmd
}

// rulesFromConfig maps the config stage table to mover rules.
func rulesFromConfig(cfg *config.Config) []stages.Rule {
	rules := make([]stages.Rule, 0, len(cfg.Stages.Rules))
	for _, s := range cfg.Stages.Rules {
		rules = append(rules, stages.Rule{
			Name:        s.Name,
			Value:       s.Value,
			Destination: s.Destination,
		})
	}
	return rules
}

func newMoveCommand() *cobra.Command {
	var (
		sheet  string
		column string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Sweep the pipeline sheet and move matching rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.SpreadsheetID == "" {
				return fmt.Errorf("no spreadsheet configured — run: sheetkit config set spreadsheet_id <id>")
			}
			rules := rulesFromConfig(cfg)
			if len(rules) == 0 {
				return fmt.Errorf("no stage rules configured — add stages.rules entries to %s", config.ConfigPath())
			}
			if sheet == "" {
				sheet = cfg.Stages.Sheet
			}
			if column == "" {
				column = cfg.Stages.Column
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}
			sheetsClient := sheets.NewClient(client)
			mover := stages.NewMover(sheetsClient, cfg.SpreadsheetID, rules)

			if dryRun {
				rows, err := sheetsClient.ReadRows(ctx, cfg.SpreadsheetID, sheet)
				if err != nil {
					return err
				}
				col, err := stages.ColumnIndex(column)
				if err != nil {
					return err
				}
				count := 0
				for i, row := range rows {
					if i == 0 || len(row) <= col {
						continue
					}
					if rule, ok := mover.Match(row[col]); ok {
						fmt.Printf("[DRY-RUN] Row %d (%s) → %s\n", i+1, row[col], rule.Destination)
						count++
					}
				}
				fmt.Printf("[DRY-RUN] %d row(s) would move\n", count)
				return nil
			}

			moves, err := mover.Sweep(ctx, sheet, column)
			if err != nil {
				if len(moves) > 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), "partial sweep — some rows were already moved:")
					for _, m := range moves {
						fmt.Fprintf(cmd.ErrOrStderr(), "  row %d → %s\n", m.Row+1, m.Rule.Destination)
					}
				}
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("stages move", map[string]any{
					"moved": len(moves),
					"moves": moves,
				})
			}

			if len(moves) == 0 {
				fmt.Println("No rows matched a stage rule")
				return nil
			}
			color.New(color.FgGreen).Printf("Moved %d row(s)\n", len(moves))
			for _, m := range moves {
				fmt.Printf("  row %d → %s (%s)\n", m.Row+1, m.Rule.Destination, m.Rule.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Source sheet to sweep (default from config)")
	cmd.Flags().StringVar(&column, "column", "", "Status column letter (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report matching rows without moving them")
	return cmd
}

func newRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the configured stage rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("stages rules", cfg.Stages)
			}

			if len(cfg.Stages.Rules) == 0 {
				fmt.Println("No stage rules configured")
				return nil
			}
			fmt.Printf("Source: %s (status column %s)\n", cfg.Stages.Sheet, cfg.Stages.Column)
			for _, r := range cfg.Stages.Rules {
				fmt.Printf("  %-16s %q → %s\n", r.Name, r.Value, r.Destination)
			}
			return nil
		},
	}
}
