// Package doctor provides the "sheetkit doctor" health check command.
package doctor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gridworks/sheetkit/internal/auth"
	"github.com/gridworks/sheetkit/internal/config"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system health and configuration",
		Long:  "Run diagnostic checks to verify sheetkit is properly configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := runChecks()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(checks)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Println("SheetKit Doctor")
			fmt.Println("===============")
			fmt.Println()

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Printf("  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Println()
			fmt.Printf("  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks() []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	home, _ := os.UserHomeDir()
	configDir := filepath.Join(home, ".sheetkit")
	if info, err := os.Stat(configDir); err == nil && info.IsDir() {
		checks = append(checks, Check{Name: "Config Directory", Status: "ok", Message: configDir})
	} else {
		checks = append(checks, Check{
			Name:    "Config Directory",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found — run 'sheetkit config init'", configDir),
		})
	}

	configFile := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: configFile})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found — run 'sheetkit config init'",
		})
	}

	if cfg, err := config.Load(); err != nil {
		checks = append(checks, Check{Name: "Spreadsheet", Status: "error", Message: err.Error()})
	} else if cfg.SpreadsheetID != "" {
		checks = append(checks, Check{Name: "Spreadsheet", Status: "ok", Message: cfg.SpreadsheetID})
	} else {
		checks = append(checks, Check{
			Name:    "Spreadsheet",
			Status:  "warning",
			Message: "Not configured — run 'sheetkit config set spreadsheet_id <id>'",
		})
	}

	if token, err := auth.LoadToken(); err == nil {
		if token.IsExpired() {
			checks = append(checks, Check{
				Name:    "Auth Token",
				Status:  "warning",
				Message: "Expired — run 'sheetkit auth login'",
			})
		} else {
			checks = append(checks, Check{
				Name:    "Auth Token",
				Status:  "ok",
				Message: fmt.Sprintf("Valid for %d minutes", int(token.ExpiresIn().Minutes())),
			})
		}
	} else {
		checks = append(checks, Check{
			Name:    "Auth Token",
			Status:  "warning",
			Message: "Not authenticated — run 'sheetkit auth login'",
		})
	}

	checks = append(checks, aiCheck())

	if os.Getenv("MAPS_API_KEY") != "" {
		checks = append(checks, Check{Name: "Distance Matrix", Status: "ok", Message: "MAPS_API_KEY set"})
	} else {
		checks = append(checks, Check{
			Name:    "Distance Matrix",
			Status:  "warning",
			Message: "MAPS_API_KEY not set — mileage lookups need it",
		})
	}

	return checks
}

func aiCheck() Check {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return Check{Name: "AI Provider (Anthropic)", Status: "ok", Message: "ANTHROPIC_API_KEY set"}
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return Check{Name: "AI Provider (OpenAI)", Status: "ok", Message: "OPENAI_API_KEY set"}
	}

	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	client := &http.Client{Timeout: 2 * time.Second}
	if resp, err := client.Get(host + "/api/tags"); err == nil {
		resp.Body.Close()
		return Check{Name: "AI Provider (Ollama)", Status: "ok", Message: host}
	}

	return Check{
		Name:    "AI Provider",
		Status:  "warning",
		Message: "No API key set and no local Ollama — AI drafts need one",
	}
}
