// Package export provides the "sheetkit export" command.
package export

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
	"github.com/gridworks/sheetkit/internal/drive"
	"github.com/gridworks/sheetkit/internal/export"
	"github.com/gridworks/sheetkit/internal/progress"
	"github.com/gridworks/sheetkit/internal/sheets"
)

// NewCommand returns the export command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export spreadsheet snapshots to files",
	}

	cmd.AddCommand(newXLSXCommand())
	return cmd
}

func newXLSXCommand() *cobra.Command {
	var (
		rangeA1       string
		spreadsheetID string
		outPath       string
		uploadFolder  string
	)

	cmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Write a range snapshot to an .xlsx file",
		Long: `Fetch a range snapshot and write it as an .xlsx workbook, keeping
bold text, merges, and column widths. With --upload the file is also
pushed to a cloud storage folder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rangeA1 == "" {
				return fmt.Errorf("--range is required, e.g. --range 'Leads!A1:F50'")
			}
			if outPath == "" {
				return fmt.Errorf("--out is required, e.g. --out leads.xlsx")
			}

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

			ctx := cmd.Context()
			client, err := auth.RequireAuth(ctx)
			if err != nil {
				return err
			}

			spin := progress.NewSpinner("Fetching " + rangeA1)
			spin.Start()
			snap, err := sheets.NewClient(client).Snapshot(ctx, spreadsheetID, rangeA1)
			if err != nil {
				spin.Stop("Fetch failed")
				return err
			}

			if err := export.WriteXLSX(snap, outPath); err != nil {
				spin.Stop("Export failed")
				return err
			}
			spin.Stop("Wrote " + outPath)

			if uploadFolder != "" {
				file, err := drive.NewClient(client).Upload(ctx, outPath, uploadFolder)
				if err != nil {
					return fmt.Errorf("export written but upload failed: %w", err)
				}
				fmt.Printf("Uploaded as %s (%s)\n", file.Name, file.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rangeA1, "range", "", "A1 range to export (required)")
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "Spreadsheet ID (default from config)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output .xlsx path (required)")
	cmd.Flags().StringVar(&uploadFolder, "upload", "", "Upload to this storage folder ID after writing")
	return cmd
}
