// Package timing expands a series request into concrete posting times.
//
// A Distributor maps each content item in a series to an anchor time
// derived from the start time and the spacing pattern. Anchors can be
// nudged by a small random offset so a long series does not publish at
// perfectly regular intervals.
package timing

import (
	"math/rand"
	"strings"
	"time"

	"github.com/plexura/syndic/errors"
)

// Pattern names a supported series spacing.
type Pattern string

const (
	// PatternImmediate publishes every item right away.
	PatternImmediate Pattern = "immediate"
	// PatternDaily spaces items twenty-four hours apart.
	PatternDaily Pattern = "daily"
	// PatternWeekly spaces items seven days apart.
	PatternWeekly Pattern = "weekly"
	// PatternCustom spaces items by a caller-supplied interval.
	PatternCustom Pattern = "custom"
)

// Spacing bounds for the custom pattern.
const (
	MinSpacing = 1 * time.Hour
	MaxSpacing = 168 * time.Hour
)

// JitterWindow bounds the random offset applied to each anchor.
const JitterWindow = 30 * time.Minute

// ParsePattern normalizes and validates a pattern name.
func ParsePattern(s string) (Pattern, error) {
	switch p := Pattern(strings.ToLower(strings.TrimSpace(s))); p {
	case PatternImmediate, PatternDaily, PatternWeekly, PatternCustom:
		return p, nil
	default:
		return "", errors.WithHint(
			errors.NewValidationError("invalid schedule pattern %q: must be one of immediate, daily, weekly, custom", s),
			"Choose a valid scheduling pattern")
	}
}

// Scheduled reports whether the pattern produces future anchors.
func (p Pattern) Scheduled() bool {
	return p == PatternDaily || p == PatternWeekly || p == PatternCustom
}

// Distributor computes anchor times for series items.
type Distributor struct {
	rng    *rand.Rand
	window time.Duration
	now    func() time.Time
}

// NewDistributor returns a time-seeded distributor.
func NewDistributor() *Distributor {
	return NewDistributorWithSeed(time.Now().UnixNano())
}

// NewDistributorWithSeed returns a distributor whose random offsets are
// reproducible for a given seed.
func NewDistributorWithSeed(seed int64) *Distributor {
	return &Distributor{
		rng:    rand.New(rand.NewSource(seed)),
		window: JitterWindow,
		now:    time.Now,
	}
}

// SetJitterWindow overrides the default offset bound. Zero or negative
// disables offsets entirely, even when a request asks for jitter.
func (d *Distributor) SetJitterWindow(window time.Duration) {
	d.window = window
}

// Distribute returns one anchor per item.
//
// The immediate pattern anchors every item at the current time. Daily
// and weekly use fixed spacings of 24h and 168h. Custom uses the given
// spacing, which must lie within [MinSpacing, MaxSpacing]; the bounds
// are checked before any anchor is computed. When jitter is enabled
// each scheduled anchor is shifted by a whole-minute offset drawn
// uniformly from the jitter window, JitterWindow either side unless
// overridden. Offsets may land an anchor before the requested start,
// and anchors are not re-sorted afterwards.
func (d *Distributor) Distribute(count int, pattern Pattern, start time.Time, spacing time.Duration, jitter bool) ([]time.Time, error) {
	if count <= 0 {
		return nil, errors.NewValidationError("at least one content item is required")
	}

	if pattern == PatternImmediate {
		now := d.now()
		anchors := make([]time.Time, count)
		for i := range anchors {
			anchors[i] = now
		}
		return anchors, nil
	}

	if start.IsZero() {
		return nil, errors.WithHint(
			errors.NewValidationError("start date is required for the %q pattern", pattern),
			"Provide a start date in ISO format, e.g. 2026-01-15T10:00:00Z")
	}

	switch pattern {
	case PatternDaily:
		spacing = 24 * time.Hour
	case PatternWeekly:
		spacing = 168 * time.Hour
	case PatternCustom:
		if spacing < MinSpacing || spacing > MaxSpacing {
			return nil, errors.WithHint(
				errors.NewValidationError("custom spacing %s is outside the allowed range of 1h to 168h", spacing),
				"Choose a spacing between one hour and one week")
		}
	default:
		return nil, errors.NewValidationError("invalid schedule pattern %q: must be one of immediate, daily, weekly, custom", pattern)
	}

	span := int(d.window.Minutes())
	anchors := make([]time.Time, count)
	for i := range anchors {
		anchor := start.Add(time.Duration(i) * spacing)
		if jitter && span > 0 {
			minutes := d.rng.Intn(2*span+1) - span
			anchor = anchor.Add(time.Duration(minutes) * time.Minute)
		}
		anchors[i] = anchor
	}
	return anchors, nil
}
