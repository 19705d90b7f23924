// Package cmd contains all CLI commands for the sheetkit binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdauth "github.com/gridworks/sheetkit/cmd/auth"
	"github.com/gridworks/sheetkit/cmd/completion"
	cmdconfig "github.com/gridworks/sheetkit/cmd/config"
	"github.com/gridworks/sheetkit/cmd/doctor"
	cmddraft "github.com/gridworks/sheetkit/cmd/draft"
	cmddrive "github.com/gridworks/sheetkit/cmd/drive"
	"github.com/gridworks/sheetkit/cmd/estimate"
	"github.com/gridworks/sheetkit/cmd/export"
	"github.com/gridworks/sheetkit/cmd/leads"
	"github.com/gridworks/sheetkit/cmd/mileage"
	cmdrender "github.com/gridworks/sheetkit/cmd/render"
	"github.com/gridworks/sheetkit/cmd/sheet"
	cmdshell "github.com/gridworks/sheetkit/cmd/shell"
	"github.com/gridworks/sheetkit/cmd/stages"
	"github.com/gridworks/sheetkit/cmd/version"
	cmdwatch "github.com/gridworks/sheetkit/cmd/watch"
	cmdworkflow "github.com/gridworks/sheetkit/cmd/workflow"
	"github.com/gridworks/sheetkit/internal/output"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetkit",
		Short: "Spreadsheet-driven business automation from the terminal",
		Long: `SheetKit — the spreadsheet is the database.

Render spreadsheet ranges as styled HTML, ingest leads, draft outreach
email with AI, move pipeline rows between stage sheets, log mileage, and
create accounting estimates. Workflows wire the pieces together.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
			output.Version = version.Version
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	// Register subcommands
	rootCmd.AddCommand(cmdauth.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(sheet.NewCommand())
	rootCmd.AddCommand(cmdrender.NewCommand())
	rootCmd.AddCommand(export.NewCommand())
	rootCmd.AddCommand(leads.NewCommand())
	rootCmd.AddCommand(cmddraft.NewCommand())
	rootCmd.AddCommand(stages.NewCommand())
	rootCmd.AddCommand(mileage.NewCommand())
	rootCmd.AddCommand(estimate.NewCommand())
	rootCmd.AddCommand(cmdworkflow.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmddrive.NewCommand())
	rootCmd.AddCommand(cmdshell.NewCommand(NewRootCommand))
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
