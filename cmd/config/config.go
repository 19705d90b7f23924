// Package config provides the "sheetkit config" command group.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/config"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sheetkit configuration",
		Long: `Manage the sheetkit configuration file (~/.sheetkit/config.yaml).

Values can also be supplied via SHEETKIT_* environment variables or a
local .env file; the environment wins over the file.`,
	}

	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func newInitCommand() *cobra.Command {
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if nonInteractive {
				if err := config.WizardNonInteractive(); err != nil {
					return err
				}
			} else {
				if err := config.Wizard(os.Stdin); err != nil {
					return err
				}
			}
			fmt.Printf("Config written to %s\n", config.ConfigPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&nonInteractive, "defaults", false, "Write defaults without prompting")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			if jsonFlag {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			fmt.Print(config.ShowConfig())
			return nil
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value by dotted key, for example:

  sheetkit config set spreadsheet_id 1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms
  sheetkit config set leads.sheet Leads
  sheetkit config set mileage.rate_per_mile 0.67`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := config.Validate()
			jsonFlag, _ := cmd.Flags().GetBool("json")

			if jsonFlag {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(issues)
			}

			if len(issues) == 0 {
				color.New(color.FgGreen).Println("✓ Configuration looks good")
				return nil
			}

			errors := 0
			for _, issue := range issues {
				switch issue.Severity {
				case "error":
					color.New(color.FgRed).Printf("✗ %s: %s\n", issue.Key, issue.Message)
					errors++
				default:
					color.New(color.FgYellow).Printf("! %s: %s\n", issue.Key, issue.Message)
				}
			}
			if errors > 0 {
				return fmt.Errorf("%d configuration error(s)", errors)
			}
			return nil
		},
	}
}
