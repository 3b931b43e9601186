package commands

import (
	"context"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"github.com/plexura/syndic/config"
	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/publer"
	"github.com/plexura/syndic/version"
)

// DoctorCmd checks the local environment and upstream connectivity.
var DoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, credentials, and upstream reachability",
	Long: `Run environment diagnostics:

- configuration resolution and validation
- credential presence (API key, default workspace)
- host and process memory
- Publer API reachability and key verification

The upstream check issues a single request to the configured base URL.
Use --offline to skip it.`,
	RunE: runDoctor,
}

var doctorOffline bool

func init() {
	DoctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "Skip the upstream reachability check")
}

const (
	bytesPerMiB = 1 << 20
	bytesPerGiB = 1 << 30
)

func runDoctor(cmd *cobra.Command, args []string) error {
	info := version.Get()
	pterm.Info.Printf("syndic %s (commit %s, %s)\n", info.Version, info.Short(), info.Platform)
	pterm.Println()

	failures := 0

	cfg, err := config.Load()
	if err != nil {
		pterm.Error.Printf("Configuration failed to load: %v\n", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		pterm.Error.Printf("Configuration invalid: %v\n", err)
		failures++
	} else {
		pterm.Success.Println("Configuration valid")
	}

	userConfig := config.GetUserConfigPath()
	if _, err := os.Stat(userConfig); err == nil {
		pterm.Printf("  User config: %s\n", userConfig)
	} else {
		pterm.Printf("  User config: %s (not present, defaults and environment apply)\n", userConfig)
	}
	pterm.Printf("  Upstream:    %s\n", cfg.GetPublerBaseURL())
	pterm.Printf("  Budget:      %d calls per %s\n", cfg.Rate.MaxCalls, cfg.RateWindow())
	pterm.Println()

	if cfg.Publer.APIKey != "" {
		pterm.Success.Printf("API key present (%s)\n", maskKey(cfg.Publer.APIKey))
	} else {
		pterm.Warning.Println("API key missing. Set SYNDIC_API_KEY or publer.api_key.")
	}
	if cfg.Publer.DefaultWorkspace != "" {
		pterm.Success.Printf("Default workspace configured (%s)\n", cfg.Publer.DefaultWorkspace)
	} else {
		pterm.Warning.Println("No default workspace. Every tool call will need a workspace_id argument.")
	}
	pterm.Println()

	reportMemory()
	pterm.Println()

	if doctorOffline {
		pterm.Info.Println("Upstream check skipped (--offline)")
	} else {
		failures += checkUpstream(cmd.Context(), cfg)
	}

	if failures > 0 {
		return errors.Newf("%d check(s) failed", failures)
	}
	pterm.Println()
	pterm.Success.Println("All checks passed")
	return nil
}

func reportMemory() {
	vm, err := mem.VirtualMemory()
	if err != nil {
		pterm.Warning.Printf("Host memory stats unavailable: %v\n", err)
		return
	}
	pterm.Printf("  Host memory: %.1f GiB available of %.1f GiB (%.0f%% used)\n",
		float64(vm.Available)/bytesPerGiB, float64(vm.Total)/bytesPerGiB, vm.UsedPercent)

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}
	if mi, err := proc.MemoryInfo(); err == nil && mi != nil {
		pterm.Printf("  Process RSS: %.1f MiB\n", float64(mi.RSS)/bytesPerMiB)
	}
}

// checkUpstream verifies the API is reachable and, when a key is
// configured, that the key is accepted. Returns the number of failed
// checks.
func checkUpstream(ctx context.Context, cfg *config.Config) int {
	if cfg.Publer.APIKey == "" {
		pterm.Info.Println("Upstream verification skipped (no API key to test)")
		return 0
	}

	client := publer.NewClient(publer.Config{
		BaseURL: cfg.GetPublerBaseURL(),
		Timeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	user, err := client.Me(ctx, publer.Credentials{APIKey: cfg.Publer.APIKey})
	switch {
	case err == nil:
		name := user.Name
		if name == "" {
			name = user.Email
		}
		pterm.Success.Printf("Publer reachable, authenticated as %s (%s)\n", name, user.AccountType)
		return 0
	case errors.IsAuthentication(err):
		pterm.Error.Printf("Publer reachable but the API key was rejected: %v\n", err)
		return 1
	case errors.IsRateLimited(err):
		pterm.Warning.Println("Publer is throttling this key right now. Try again shortly.")
		return 0
	default:
		pterm.Error.Printf("Publer unreachable: %v\n", err)
		return 1
	}
}
