package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plexura/syndic/cmd/syndic/commands"
	"github.com/plexura/syndic/logger"
)

var rootCmd = &cobra.Command{
	Use:   "syndic",
	Short: "syndic - Social media scheduling engine for MCP clients",
	Long: `syndic - Social media scheduling and job tracking over the Publer API.

syndic exposes scheduling tools to MCP clients: blog promotion across
platforms, multi-platform posts with per-platform shaping, bulk content
series, analytics-driven optimal timing, and job monitoring.

Available commands:
  serve   - Run the MCP tool server on stdio
  plan    - Preview a content series schedule offline
  config  - Inspect and persist configuration
  doctor  - Check configuration, credentials, and upstream reachability
  version - Show build information

Examples:
  syndic serve                                  # Serve MCP tools on stdio
  syndic plan series.yaml --seed 7              # Reproducible schedule preview
  syndic config set publer.default_workspace ws_123
  syndic doctor                                 # Environment diagnostics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize the global logger before any command runs. All log
		// output goes to stderr: stdout carries the MCP stream under
		// serve and command results everywhere else.
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithVerbosity(false, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.PlanCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.DoctorCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
