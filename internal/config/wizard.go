package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

// Wizard runs the interactive setup wizard.
// If reader is nil, reads from os.Stdin.
func Wizard(reader io.Reader) error {
	if reader == nil {
		reader = os.Stdin
	}
	scanner := bufio.NewScanner(reader)

	fmt.Println("sheetkit Setup Wizard")
	fmt.Println()
	fmt.Println("Let's get you set up in about 60 seconds.")
	fmt.Println()
	fmt.Println(strings.Repeat("-", 48))
	fmt.Println()

	// Step 1: Spreadsheet
	fmt.Println("Step 1/4: Spreadsheet")
	fmt.Print("  Paste the ID of the spreadsheet to automate: ")
	scanner.Scan()
	if id := strings.TrimSpace(scanner.Text()); id != "" {
		viper.Set("spreadsheet_id", id)
		fmt.Println("  Spreadsheet ID saved")
	} else {
		fmt.Println("  Skipped")
	}
	fmt.Println()

	// Step 2: AI Provider
	fmt.Println("Step 2/4: AI Provider (for draft emails)")
	fmt.Println("  [1] Anthropic Claude (recommended)")
	fmt.Println("  [2] OpenAI GPT-4o")
	fmt.Println("  [3] Ollama (local, free)")
	fmt.Println("  [4] Skip for now")
	fmt.Print("  Choice: ")

	scanner.Scan()
	switch strings.TrimSpace(scanner.Text()) {
	case "1":
		viper.Set("provider", "anthropic")
		fmt.Print("  Paste your Anthropic API key (sk-ant-...): ")
		scanner.Scan()
		if key := strings.TrimSpace(scanner.Text()); key != "" {
			viper.Set("api_keys.anthropic", key)
			fmt.Println("  API key saved")
		}
	case "2":
		viper.Set("provider", "openai")
		fmt.Print("  Paste your OpenAI API key (sk-...): ")
		scanner.Scan()
		if key := strings.TrimSpace(scanner.Text()); key != "" {
			viper.Set("api_keys.openai", key)
			fmt.Println("  API key saved")
		}
	case "3":
		viper.Set("provider", "ollama")
		fmt.Print("  Ollama host (default: http://localhost:11434): ")
		scanner.Scan()
		host := strings.TrimSpace(scanner.Text())
		if host == "" {
			host = "http://localhost:11434"
		}
		viper.Set("ollama.host", host)
		fmt.Println("  Ollama configured")
	default:
		fmt.Println("  Skipped")
	}
	fmt.Println()

	// Step 3: Mileage
	fmt.Println("Step 3/4: Mileage (optional)")
	fmt.Print("  Set up mileage logging? [y/N]: ")
	scanner.Scan()
	if c := strings.TrimSpace(strings.ToLower(scanner.Text())); c == "y" || c == "yes" {
		fmt.Print("  Home base address: ")
		scanner.Scan()
		viper.Set("mileage.home_base", strings.TrimSpace(scanner.Text()))
		fmt.Print("  Rate per mile (default: 0.67): ")
		scanner.Scan()
		if rate := strings.TrimSpace(scanner.Text()); rate != "" {
			viper.Set("mileage.rate_per_mile", rate)
		}
		fmt.Println("  Mileage configured")
	} else {
		fmt.Println("  Skipped")
	}
	fmt.Println()

	if err := SaveConfig(); err != nil {
		return fmt.Errorf("could not save config: %w", err)
	}

	// Step 4: Done
	fmt.Println("Step 4/4: Done!")
	fmt.Println(strings.Repeat("-", 48))
	fmt.Println()
	fmt.Println("sheetkit is ready!")
	fmt.Println()
	fmt.Println("Quick start:")
	fmt.Println("  sheetkit auth login               (grant spreadsheet access)")
	fmt.Println("  sheetkit render 'Leads!A1:F20'    (HTML snapshot)")
	fmt.Println("  sheetkit leads sync               (pull new leads)")
	fmt.Println()
	fmt.Printf("Config file: %s\n", ConfigPath())
	fmt.Println("Type 'sheetkit config show' to see all settings.")

	return nil
}

// WizardNonInteractive sets up config with defaults only (no user input).
func WizardNonInteractive() error {
	viper.Set("provider", "anthropic")
	viper.Set("output.color", true)
	viper.Set("output.format", "text")
	return SaveConfig()
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	if viper.GetString("spreadsheet_id") == "" && os.Getenv("SHEETKIT_SPREADSHEET_ID") == "" {
		issues = append(issues, ConfigIssue{
			Key:      "spreadsheet_id",
			Severity: "error",
			Message:  "no spreadsheet configured — every workflow needs one",
			Fix:      "sheetkit config set spreadsheet_id <id>",
		})
	}

	provider := viper.GetString("provider")
	switch provider {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			key = viper.GetString("api_keys.anthropic")
		}
		if key == "" {
			issues = append(issues, ConfigIssue{
				Key:      "provider",
				Severity: "error",
				Message:  fmt.Sprintf("provider is %q but ANTHROPIC_API_KEY is not set", provider),
				Fix:      "export ANTHROPIC_API_KEY=sk-ant-...\nOr: sheetkit config set api_keys.anthropic sk-ant-...",
			})
		} else {
			issues = append(issues, ConfigIssue{
				Key:      "provider",
				Severity: "info",
				Message:  "Anthropic API key configured",
			})
		}
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			key = viper.GetString("api_keys.openai")
		}
		if key == "" {
			issues = append(issues, ConfigIssue{
				Key:      "provider",
				Severity: "error",
				Message:  fmt.Sprintf("provider is %q but OPENAI_API_KEY is not set", provider),
				Fix:      "export OPENAI_API_KEY=sk-...",
			})
		}
	case "ollama":
		issues = append(issues, ConfigIssue{
			Key:      "provider",
			Severity: "info",
			Message:  "Ollama configured (no API key needed)",
		})
	}

	mapsKey := os.Getenv("MAPS_API_KEY")
	if mapsKey == "" {
		mapsKey = viper.GetString("api_keys.maps")
	}
	if mapsKey == "" {
		issues = append(issues, ConfigIssue{
			Key:      "api_keys.maps",
			Severity: "warning",
			Message:  "maps API key is not set — mileage distance lookups will not work",
			Fix:      "sheetkit config set api_keys.maps <key>",
		})
	}

	return issues
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)

	if id := viper.GetString("spreadsheet_id"); id != "" {
		env["SHEETKIT_SPREADSHEET_ID"] = id
	}
	if p := viper.GetString("provider"); p != "" {
		env["SHEETKIT_AI_PROVIDER"] = p
	}
	if m := viper.GetString("model"); m != "" {
		env["SHEETKIT_AI_MODEL"] = m
	}
	if k := viper.GetString("api_keys.anthropic"); k != "" {
		env["ANTHROPIC_API_KEY"] = k
	}
	if k := viper.GetString("api_keys.openai"); k != "" {
		env["OPENAI_API_KEY"] = k
	}
	if k := viper.GetString("api_keys.maps"); k != "" {
		env["MAPS_API_KEY"] = k
	}
	if h := viper.GetString("ollama.host"); h != "" {
		env["SHEETKIT_OLLAMA_HOST"] = h
	}

	return env
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig resets all config to defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	// Reset viper defaults
	viper.Set("provider", "anthropic")
	viper.Set("model", "claude-sonnet-4-20250514")
	viper.Set("output.color", true)
	viper.Set("output.format", "text")
	return nil
}

// SaveConfig writes the current config to ~/.sheetkit/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	// Set secure permissions
	os.Chmod(path, 0600)
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	sb.WriteString("Spreadsheet\n")
	sb.WriteString(fmt.Sprintf("  id:        %s\n", viper.GetString("spreadsheet_id")))
	sb.WriteString("\n")

	sb.WriteString("AI\n")
	sb.WriteString(fmt.Sprintf("  provider:  %s\n", viper.GetString("provider")))
	sb.WriteString(fmt.Sprintf("  model:     %s\n", viper.GetString("model")))
	if k := viper.GetString("api_keys.anthropic"); k != "" {
		sb.WriteString(fmt.Sprintf("  key:       %s****\n", k[:min(10, len(k))]))
	}
	if k := viper.GetString("api_keys.openai"); k != "" {
		sb.WriteString(fmt.Sprintf("  key:       %s****\n", k[:min(10, len(k))]))
	}
	sb.WriteString("\n")

	if base := viper.GetString("mileage.home_base"); base != "" {
		sb.WriteString("Mileage\n")
		sb.WriteString(fmt.Sprintf("  home_base: %s\n", base))
		sb.WriteString(fmt.Sprintf("  rate:      %s/mile\n", viper.GetString("mileage.rate_per_mile")))
		sb.WriteString("\n")
	}

	return sb.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
