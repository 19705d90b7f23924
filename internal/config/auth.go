package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// GetAPIKey retrieves the API key for the given provider, checking environment
// variables first and falling back to the config file.
func GetAPIKey(provider string) (string, error) {
	switch provider {
	case "anthropic":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			return key, nil
		}
		if key := viper.GetString("api_keys.anthropic"); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("ANTHROPIC_API_KEY not found — set it via environment variable or in ~/.sheetkit/config.yaml")

	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return key, nil
		}
		if key := viper.GetString("api_keys.openai"); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("OPENAI_API_KEY not found — set it via environment variable or in ~/.sheetkit/config.yaml")

	case "maps":
		if key := os.Getenv("MAPS_API_KEY"); key != "" {
			return key, nil
		}
		if key := viper.GetString("api_keys.maps"); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("MAPS_API_KEY not found — mileage distance lookups need a maps API key")

	default:
		return "", fmt.Errorf("no API key management for provider %q", provider)
	}
}
