package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plexura/syndic/config"
	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/logger"
	"github.com/plexura/syndic/server"
	"github.com/plexura/syndic/version"
)

// ServeCmd runs the MCP tool server on stdio.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP tool server on stdio",
	Long: `Serve the scheduling tools to an MCP client over stdio.

stdout carries the MCP protocol stream; all logs and diagnostics go to
stderr. The server picks up log theme changes when the watched
configuration file is edited, without a restart.`,
	RunE: runServe,
}

var serveConfigPath string

func init() {
	ServeCmd.Flags().StringVar(&serveConfigPath, "config", "", "Load configuration from a specific file instead of the cascade")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Default to info so startup and tool activity are visible.
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = logger.VerbosityInfo
		logger.SetLevel(logger.VerbosityToLevel(verbosity))
	}

	var cfg *config.Config
	var err error
	if serveConfigPath != "" {
		cfg, err = config.LoadFromFile(serveConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	logger.SetTheme(cfg.GetServerLogTheme())

	printServeBanner(verbosity, cfg)

	if watcher := watchConfig(); watcher != nil {
		defer watcher.Stop()
	}

	srv := server.New(cfg, logger.Logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		// The transport closed: either the client disconnected cleanly
		// or the stream broke.
		if err != nil {
			return errors.Wrap(err, "server stopped")
		}
		logger.Infow("Client disconnected, shutting down")
		logger.Cleanup()
		return nil
	case sig := <-sigChan:
		logger.Infow("Shutting down", "signal", sig.String())
		logger.Cleanup()
		return nil
	}
}

// watchConfig starts a watcher on the user configuration file so theme
// changes apply to the running server. Returns nil when there is no
// file to watch; serving proceeds either way.
func watchConfig() *config.ConfigWatcher {
	watchPath := serveConfigPath
	if watchPath == "" {
		watchPath = config.GetUserConfigPath()
	}
	if watchPath == "" {
		return nil
	}
	if _, err := os.Stat(watchPath); err != nil {
		return nil
	}

	watcher, err := config.NewConfigWatcher(watchPath)
	if err != nil {
		logger.Warnw("Config watcher unavailable", "path", watchPath, "error", err)
		return nil
	}
	watcher.OnReload(func(next *config.Config) error {
		logger.SetTheme(next.GetServerLogTheme())
		logger.Infow("Applied reloaded configuration", "config", next.String())
		return nil
	})
	watcher.Start()
	config.SetGlobalWatcher(watcher)
	logger.Debugw("Watching configuration file", "path", watchPath)
	return watcher
}

// printServeBanner writes startup info to stderr. Nothing here may
// touch stdout: the MCP client owns it.
func printServeBanner(verbosity int, cfg *config.Config) {
	cyan := "\033[36m"
	green := "\033[32m"
	bold := "\033[1m"
	reset := "\033[0m"

	info := version.Get()
	out := os.Stderr

	workspace := cfg.Publer.DefaultWorkspace
	if workspace == "" {
		workspace = "(per-call workspace_id required)"
	}
	key := "missing"
	if cfg.Publer.APIKey != "" {
		key = "present"
	}

	fmt.Fprintf(out, "\n%s%s┌─ syndic ─────────────────────────────────────┐%s\n", cyan, bold, reset)
	fmt.Fprintf(out, "%s│%s Version:   %s (commit %s)\n", cyan, reset, info.Version, info.Short())
	fmt.Fprintf(out, "%s│%s Upstream:  %s\n", cyan, reset, cfg.GetPublerBaseURL())
	fmt.Fprintf(out, "%s│%s Workspace: %s\n", cyan, reset, workspace)
	fmt.Fprintf(out, "%s│%s API key:   %s\n", cyan, reset, key)
	fmt.Fprintf(out, "%s│%s Budget:    %d calls per %s\n", cyan, reset, cfg.Rate.MaxCalls, cfg.RateWindow())
	fmt.Fprintf(out, "%s│%s Verbosity: %s\n", cyan, reset, logger.LevelName(verbosity))
	fmt.Fprintf(out, "%s└──────────────────────────────────────────────┘%s\n", cyan, reset)
	fmt.Fprintf(out, "%sMCP tools ready on stdio. Press Ctrl+C to stop.%s\n\n", green, reset)
}
