package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// DefaultPublerBaseURL is the production Publer API endpoint
const DefaultPublerBaseURL = "https://app.publer.com/api/v1"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Publer API defaults
	v.SetDefault("publer.base_url", DefaultPublerBaseURL)
	v.SetDefault("publer.timeout_seconds", 30)

	// Rate governor defaults match Publer's documented workspace quota
	v.SetDefault("rate.window_seconds", 120)
	v.SetDefault("rate.max_calls", 100)

	// Optimal-time selection defaults
	v.SetDefault("optimal.min_confidence", 0.5)
	v.SetDefault("optimal.agreement_window_minutes", 60)

	// Plan expansion defaults
	v.SetDefault("plan.jitter_minutes", 30)
	v.SetDefault("plan.max_bulk_items", 50)

	// Content analysis defaults
	v.SetDefault("content.fetch_timeout_seconds", 10)
	v.SetDefault("content.max_keywords", 10)

	// Server defaults
	v.SetDefault("server.log_theme", "gruvbox")
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("publer.api_key", "SYNDIC_API_KEY")
	v.BindEnv("publer.default_workspace", "SYNDIC_WORKSPACE_ID")
	v.BindEnv("publer.base_url", "SYNDIC_PUBLER_BASE_URL")
}

// GetServerLogTheme returns the log theme (default: gruvbox)
func (c *Config) GetServerLogTheme() string {
	if c.Server.LogTheme == "" {
		return "gruvbox"
	}
	return c.Server.LogTheme
}

// GetPublerBaseURL returns the Publer API base URL with the default applied
func (c *Config) GetPublerBaseURL() string {
	if c.Publer.BaseURL == "" {
		return DefaultPublerBaseURL
	}
	return c.Publer.BaseURL
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Publer: {BaseURL: %s, Workspace: %s}, Rate: {%d/%ds}}",
		c.GetPublerBaseURL(), c.Publer.DefaultWorkspace, c.Rate.MaxCalls, c.Rate.WindowSeconds)
}
