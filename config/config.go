package config

import "time"

// Config represents the core syndic configuration
type Config struct {
	Publer  PublerConfig  `mapstructure:"publer"`
	Rate    RateConfig    `mapstructure:"rate"`
	Optimal OptimalConfig `mapstructure:"optimal"`
	Plan    PlanConfig    `mapstructure:"plan"`
	Content ContentConfig `mapstructure:"content"`
	Server  ServerConfig  `mapstructure:"server"`
}

// PublerConfig configures access to the Publer API
type PublerConfig struct {
	APIKey           string `mapstructure:"api_key"`           // API key (prefer SYNDIC_API_KEY env var)
	BaseURL          string `mapstructure:"base_url"`          // API base URL (default: https://app.publer.com/api/v1)
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`   // Request timeout in seconds (default: 30)
	DefaultWorkspace string `mapstructure:"default_workspace"` // Workspace used when tool calls omit workspace_id
}

// RateConfig configures the upstream call governor.
// Publer enforces 100 requests per rolling 2 minutes per workspace.
type RateConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"` // Sliding window length (default: 120)
	MaxCalls      int `mapstructure:"max_calls"`      // Calls admitted per window (default: 100)
}

// OptimalConfig configures optimal-time selection from engagement analytics
type OptimalConfig struct {
	MinConfidence          float64 `mapstructure:"min_confidence"`           // Recommendations below this are ignored (default: 0.5)
	AgreementWindowMinutes int     `mapstructure:"agreement_window_minutes"` // Cross-platform agreement window (default: 60)
}

// PlanConfig configures scheduling plan expansion
type PlanConfig struct {
	JitterMinutes int `mapstructure:"jitter_minutes"` // Max +/- jitter applied to distributed slots (default: 30)
	MaxBulkItems  int `mapstructure:"max_bulk_items"` // Items accepted per bulk plan (default: 50)
}

// ContentConfig configures fetching and analysis of linked articles
type ContentConfig struct {
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds"` // Article fetch timeout (default: 10)
	MaxKeywords         int `mapstructure:"max_keywords"`          // Keywords extracted per article (default: 10)
}

// ServerConfig configures the MCP server process
type ServerConfig struct {
	LogTheme string `mapstructure:"log_theme"` // Color theme: gruvbox, everforest
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// PublerTimeout returns the Publer request timeout as a duration
func (c *Config) PublerTimeout() time.Duration {
	if c.Publer.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Publer.TimeoutSeconds) * time.Second
}

// RateWindow returns the governor window as a duration
func (c *Config) RateWindow() time.Duration {
	if c.Rate.WindowSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.Rate.WindowSeconds) * time.Second
}

// AgreementWindow returns the cross-platform agreement window as a duration
func (c *Config) AgreementWindow() time.Duration {
	if c.Optimal.AgreementWindowMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Optimal.AgreementWindowMinutes) * time.Minute
}

// FetchTimeout returns the article fetch timeout as a duration
func (c *Config) FetchTimeout() time.Duration {
	if c.Content.FetchTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Content.FetchTimeoutSeconds) * time.Second
}

// JitterWindow returns the maximum slot jitter as a duration
func (c *Config) JitterWindow() time.Duration {
	if c.Plan.JitterMinutes < 0 {
		return 0
	}
	return time.Duration(c.Plan.JitterMinutes) * time.Minute
}
