package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/plan/timing"
)

// PlanCmd previews a content series schedule without contacting Publer.
var PlanCmd = &cobra.Command{
	Use:   "plan <manifest.yaml>",
	Short: "Preview a content series schedule offline",
	Long: `Expand a series manifest into concrete posting times without
contacting Publer. Useful for checking a cadence before handing the
series to the bulk scheduling tool.

The manifest mirrors the bulk scheduler's arguments:

  pattern: daily              # immediate, daily, weekly, custom
  start_date: 2026-09-01T10:00:00Z
  spacing_hours: 6            # custom pattern only, 1 to 168
  jitter: true
  items:
    - content: "Part one: why we rebuilt the pipeline"
    - content: "Part two: the migration"
      media_urls: ["https://cdn.example.com/diagram.png"]
    - content: "Part three: results"
      schedule_time: 2026-09-04T18:00:00Z   # custom pattern override

Examples:
  syndic plan series.yaml
  syndic plan series.yaml --seed 7    # reproducible jitter offsets`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

var planSeed int64

func init() {
	PlanCmd.Flags().Int64Var(&planSeed, "seed", 0, "Seed for reproducible jitter offsets")
}

type seriesManifest struct {
	Pattern      string         `yaml:"pattern"`
	StartDate    string         `yaml:"start_date"`
	SpacingHours int            `yaml:"spacing_hours"`
	Jitter       bool           `yaml:"jitter"`
	Items        []manifestItem `yaml:"items"`
}

type manifestItem struct {
	Content      string   `yaml:"content"`
	MediaURLs    []string `yaml:"media_urls"`
	ScheduleTime string   `yaml:"schedule_time"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "failed to read manifest")
	}

	var manifest seriesManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return errors.Wrap(err, "failed to parse manifest")
	}
	if len(manifest.Items) == 0 {
		return errors.New("manifest has no items")
	}

	pattern, err := timing.ParsePattern(manifest.Pattern)
	if err != nil {
		return err
	}

	var start time.Time
	if manifest.StartDate != "" {
		start, err = parseManifestTime(manifest.StartDate)
		if err != nil {
			return errors.Wrapf(err, "invalid start_date %q", manifest.StartDate)
		}
	}

	dist := timing.NewDistributor()
	if cmd.Flags().Changed("seed") {
		dist = timing.NewDistributorWithSeed(planSeed)
	}

	spacing := time.Duration(manifest.SpacingHours) * time.Hour
	anchors, err := dist.Distribute(len(manifest.Items), pattern, start, spacing, manifest.Jitter)
	if err != nil {
		return err
	}

	var earliest, latest time.Time
	rows := pterm.TableData{{"#", "Scheduled (UTC)", "Media", "Content"}}
	for i, item := range manifest.Items {
		at := anchors[i]
		if pattern == timing.PatternCustom && item.ScheduleTime != "" {
			at, err = parseManifestTime(item.ScheduleTime)
			if err != nil {
				return errors.Wrapf(err, "invalid schedule_time on item %d", i+1)
			}
		}

		when := "immediate"
		if pattern.Scheduled() {
			when = at.UTC().Format(time.RFC3339)
			if earliest.IsZero() || at.Before(earliest) {
				earliest = at
			}
			if at.After(latest) {
				latest = at
			}
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			when,
			fmt.Sprintf("%d", len(item.MediaURLs)),
			itemPreview(item.Content),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return errors.Wrap(err, "failed to render schedule")
	}

	pterm.Println()
	pterm.Info.Printf("%d items, %s pattern\n", len(manifest.Items), pattern)
	if !earliest.IsZero() && latest.After(earliest) {
		pterm.Info.Printf("Series spans %s from the first slot\n", latest.Sub(earliest).Round(time.Minute))
	}
	if manifest.Jitter && !cmd.Flags().Changed("seed") {
		pterm.Info.Println("Jitter offsets vary per run. Use --seed for a reproducible preview.")
	}
	return nil
}

func parseManifestTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf("unrecognized time %q, expected ISO format like 2026-01-15T10:00:00Z", s)
}

func itemPreview(content string) string {
	const max = 48
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max-3]) + "..."
}
