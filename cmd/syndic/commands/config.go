package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/plexura/syndic/config"
)

// ConfigCmd groups configuration inspection and persistence.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage syndic configuration",
	Long: `Display and persist syndic configuration.

Configuration sources (in order of precedence):
1. Environment variables (SYNDIC_* prefix)
2. Project config (./syndic.toml or ./config.toml, searching up directories)
3. User config (~/.syndic/syndic.toml)
4. System config (/etc/syndic/config.toml)
5. Default values

Examples:
  syndic config list                   # Show the merged configuration
  syndic config list --format json
  syndic config get publer.base_url
  syndic config set publer.default_workspace ws_123
  syndic config init                   # Write a starter user config`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the merged configuration",
	Long:  "Display the effective configuration after merging all sources. The API key is masked.",
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long:  "Get a configuration value using dot notation, e.g. publer.base_url or rate.max_calls",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value",
	Long: `Write a configuration value to the user config file using dot
notation. The previous file is kept as a rotating backup (.back1..back3).

Examples:
  syndic config set publer.default_workspace ws_123
  syndic config set rate.max_calls 60
  syndic config set server.log_theme everforest`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter user configuration file",
	Long:  "Create ~/.syndic/syndic.toml with documented defaults. Refuses to overwrite an existing file unless --force is given.",
	RunE:  runConfigInit,
}

var (
	configFormat string
	configForce  bool
)

func init() {
	configListCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	ConfigCmd.AddCommand(configListCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configSetCmd)
	ConfigCmd.AddCommand(configInitCmd)
}

func runConfigList(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Viper's settings map keeps the real key names across formats.
	settings := config.GetViper().AllSettings()
	maskSecret(settings, "publer", "api_key")

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Println(string(data))

	case "yaml":
		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Printf("# syndic configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Printf("# syndic configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}

	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := config.GetViper()
	if !v.IsSet(key) {
		return fmt.Errorf("configuration key %q not found", key)
	}

	if key == "publer.api_key" {
		fmt.Println(maskKey(config.GetString(key)))
		return nil
	}
	fmt.Println(config.Get(key))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	if err := config.SetValue(key, coerceValue(raw)); err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}

	// Re-validate with the new value merged in.
	config.Reset()
	if cfg, err := config.Load(); err == nil {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  Saved, but the merged configuration is now invalid: %v\n", err)
			fmt.Fprintf(os.Stderr, "   Previous file kept as %s.back1\n", config.GetUserConfigPath())
			return nil
		}
	}

	fmt.Printf("✓ %s = %s\n", key, displayValue(key, raw))
	fmt.Printf("Saved to %s\n", config.GetUserConfigPath())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := config.GetUserConfigPath()
	if configPath == "" {
		return fmt.Errorf("could not determine home directory")
	}

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(starterConfig), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("✓ Wrote %s\n", configPath)
	fmt.Println("Set SYNDIC_API_KEY in the environment rather than storing the key in the file.")
	return nil
}

// coerceValue keeps TOML types sensible: "60" persists as an integer,
// "true" as a boolean, everything else as a string.
func coerceValue(raw string) interface{} {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func displayValue(key, raw string) string {
	if key == "publer.api_key" {
		return maskKey(raw)
	}
	return raw
}

// maskKey keeps enough of a secret to recognize it without exposing it.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskSecret masks a nested settings entry in place when present.
func maskSecret(settings map[string]interface{}, section, key string) {
	child, ok := settings[section].(map[string]interface{})
	if !ok {
		return
	}
	if secret, ok := child[key].(string); ok && secret != "" {
		child[key] = maskKey(secret)
	}
}

const starterConfig = `# syndic configuration
# Values here are merged under environment variables (SYNDIC_* prefix)
# and any project-level syndic.toml.

[publer]
# api_key = ""                  # prefer the SYNDIC_API_KEY environment variable
# default_workspace = ""        # workspace used when tool calls omit workspace_id
base_url = "https://app.publer.com/api/v1"
timeout_seconds = 30

[rate]
# Publer allows 100 requests per rolling 2 minutes per workspace.
window_seconds = 120
max_calls = 100

[optimal]
min_confidence = 0.5
agreement_window_minutes = 60

[plan]
jitter_minutes = 30
max_bulk_items = 50

[content]
fetch_timeout_seconds = 10
max_keywords = 10

[server]
log_theme = "gruvbox"            # gruvbox, everforest
`
