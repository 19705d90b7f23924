// Package config manages application configuration from files and environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	Sender        string `mapstructure:"sender"`
	Provider      string `mapstructure:"provider"`
	Model         string `mapstructure:"model"`
	APIKeys       struct {
		Anthropic string `mapstructure:"anthropic"`
		OpenAI    string `mapstructure:"openai"`
		Maps      string `mapstructure:"maps"`
	} `mapstructure:"api_keys"`
	Ollama struct {
		Host string `mapstructure:"host"`
	} `mapstructure:"ollama"`
	Leads struct {
		Sheet string `mapstructure:"sheet"`
		Range string `mapstructure:"range"`
		Tone  string `mapstructure:"tone"`
	} `mapstructure:"leads"`
	Stages struct {
		Sheet  string  `mapstructure:"sheet"`
		Column string  `mapstructure:"column"`
		Rules  []Stage `mapstructure:"rules"`
	} `mapstructure:"stages"`
	Mileage struct {
		Sheet       string  `mapstructure:"sheet"`
		RatePerMile float64 `mapstructure:"rate_per_mile"`
		HomeBase    string  `mapstructure:"home_base"`
	} `mapstructure:"mileage"`
	QuickBooks struct {
		RealmID     string `mapstructure:"realm_id"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"quickbooks"`
	Workflows struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"workflows"`
	Output struct {
		Format string `mapstructure:"format"`
		Color  bool   `mapstructure:"color"`
	} `mapstructure:"output"`
}

// Stage is one row of the stage-matching table: a row whose status
// column matches Value belongs on the Destination worksheet. The
// table is business configuration, not code.
type Stage struct {
	Name        string `mapstructure:"name"`
	Value       string `mapstructure:"value"`
	Destination string `mapstructure:"destination"`
}

// Load reads the configuration from ~/.sheetkit/config.yaml, an
// optional local .env file, and environment variables.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())

	// Defaults
	viper.SetDefault("provider", "anthropic")
	viper.SetDefault("model", "claude-sonnet-4-20250514")
	viper.SetDefault("leads.sheet", "Leads")
	viper.SetDefault("leads.range", "A:F")
	viper.SetDefault("stages.sheet", "Pipeline")
	viper.SetDefault("stages.column", "C")
	viper.SetDefault("mileage.sheet", "Mileage")
	viper.SetDefault("mileage.rate_per_mile", 0.67)
	viper.SetDefault("quickbooks.environment", "production")
	viper.SetDefault("output.color", true)
	viper.SetDefault("output.format", "text")

	// Environment variable overrides
	viper.SetEnvPrefix("SHEETKIT")
	viper.AutomaticEnv()

	// Read config file (non-fatal if missing)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetkit"
	}
	return filepath.Join(home, ".sheetkit")
}

// WorkflowsDir returns the directory holding workflow definitions,
// defaulting to ~/.sheetkit/workflows.
func (c *Config) WorkflowsDir() string {
	if c.Workflows.Dir != "" {
		return c.Workflows.Dir
	}
	return filepath.Join(configDir(), "workflows")
}
