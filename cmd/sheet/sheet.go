// Package sheet provides the "sheetkit sheet" row-level commands.
package sheet

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/sheets"
)

// NewCommand returns the sheet command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Read, append, and update spreadsheet rows",
	}

	cmd.AddCommand(newReadCommand())
	cmd.AddCommand(newAppendCommand())
	cmd.AddCommand(newUpdateCommand())
	cmd.AddCommand(newSheetsCommand())

	return cmd
}

// resolveSpreadsheet picks the flag value or falls back to config.
func resolveSpreadsheet(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.SpreadsheetID == "" {
		return "", fmt.Errorf("no spreadsheet configured — run: sheetkit config set spreadsheet_id <id>")
	}
	return cfg.SpreadsheetID, nil
}

func newReadCommand() *cobra.Command {
	var (
		rangeA1       string
		spreadsheetID string
	)

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read a range as tab-separated rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rangeA1 == "" {
				return fmt.Errorf("--range is required, e.g. --range 'Leads!A2:F'")
			}
			id, err := resolveSpreadsheet(spreadsheetID)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			rows, err := sheets.NewClient(client).ReadRows(ctx, id, rangeA1)
			if err != nil {
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("sheet read", map[string]any{
					"range": rangeA1,
					"rows":  rows,
				})
			}

			for _, row := range rows {
				fmt.Println(strings.Join(row, "\t"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeA1, "range", "", "A1 range to read (required)")
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "Spreadsheet ID (default from config)")
	return cmd
}

func newAppendCommand() *cobra.Command {
	var (
		rangeA1       string
		spreadsheetID string
	)

	cmd := &cobra.Command{
		Use:   "append <cell> [cell...]",
		Short: "Append a row of values after the last data row",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rangeA1 == "" {
				return fmt.Errorf("--range is required, e.g. --range 'Leads!A:F'")
			}
			id, err := resolveSpreadsheet(spreadsheetID)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			if err := sheets.NewClient(client).AppendRow(ctx, id, rangeA1, args); err != nil {
				return err
			}

			fmt.Printf("Appended %d cells to %s\n", len(args), rangeA1)
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeA1, "range", "", "A1 range to append within (required)")
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "Spreadsheet ID (default from config)")
	return cmd
}

func newUpdateCommand() *cobra.Command {
	var (
		rangeA1       string
		spreadsheetID string
	)

	cmd := &cobra.Command{
		Use:   "update <cell> [cell...]",
		Short: "Overwrite a row in place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rangeA1 == "" {
				return fmt.Errorf("--range is required, e.g. --range 'Leads!A5:F5'")
			}
			id, err := resolveSpreadsheet(spreadsheetID)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			if err := sheets.NewClient(client).UpdateRow(ctx, id, rangeA1, args); err != nil {
				return err
			}

			fmt.Printf("Updated %s with %d cells\n", rangeA1, len(args))
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeA1, "range", "", "A1 range of the row to overwrite (required)")
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "Spreadsheet ID (default from config)")
	return cmd
}

func newSheetsCommand() *cobra.Command {
	var spreadsheetID string

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "List the worksheets of the spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveSpreadsheet(spreadsheetID)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			props, err := sheets.NewClient(client).ListSheets(ctx, id)
			if err != nil {
				return err
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("sheet sheets", props)
			}

			for _, p := range props {
				fmt.Printf("%d\t%s\n", p.SheetID, p.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "Spreadsheet ID (default from config)")
	return cmd
}
