// Package render provides the "sheetkit render" command.
package render

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/output"
	"github.com/gridworks/sheetkit/internal/progress"
	"github.com/gridworks/sheetkit/internal/render"
	"github.com/gridworks/sheetkit/internal/sheets"
)

// NewCommand returns the render command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render spreadsheet ranges as styled HTML",
	}

	cmd.AddCommand(newHTMLCommand())
	return cmd
}

func newHTMLCommand() *cobra.Command {
	var (
		rangeA1       string
		spreadsheetID string
		outPath       string
	)

	cmd := &cobra.Command{
		Use:   "html",
		Short: "Render a range as an HTML table with inline styling",
		Long: `Fetch a range snapshot and render it as a styled HTML table:
cell backgrounds, fonts, borders, merges, and pixel sizes carried over
as inline CSS. The output is suitable for inlining into an email body.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if spreadsheetID == "" {
				spreadsheetID = cfg.SpreadsheetID
			}
			if spreadsheetID == "" {
				return fmt.Errorf("no spreadsheet configured — run: sheetkit config set spreadsheet_id <id>")
			}
			if rangeA1 == "" {
				return fmt.Errorf("--range is required, e.g. --range 'Leads!A1:F20'")
			}

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			spin := progress.NewSpinner("Fetching range " + rangeA1)
			spin.Start()
			r := render.NewRenderer(sheets.NewClient(client))
			html, ok := r.RenderRange(ctx, spreadsheetID, rangeA1)
			spin.Stop("Rendered " + rangeA1)

			if !ok {
				fmt.Fprintln(os.Stderr, "range is empty — nothing to render")
				return nil
			}

			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				return output.PrintJSON("render html", map[string]any{
					"range": rangeA1,
					"html":  html,
				})
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(html), 0o644); err != nil {
					return fmt.Errorf("could not write %s: %w", outPath, err)
				}
				fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(html))
				return nil
			}

			fmt.Println(html)
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeA1, "range", "", "A1 range to render (required)")
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "Spreadsheet ID (default from config)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write HTML to a file instead of stdout")
	return cmd
}
