// Package plan expands scheduling requests into validated sets of
// per-platform publish instructions.
//
// A planner takes one request shape, the workspace's connected
// accounts, and any timing inputs, and produces a SchedulingPlan whose
// instructions carry platform-shaped content and resolved timestamps.
// Planning never talks to the network; submission is a separate
// concern.
package plan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plexura/syndic/plan/optimal"
	"github.com/plexura/syndic/plan/timing"
	"github.com/plexura/syndic/publer"
)

// PlanKind names the request shape a plan was built from.
type PlanKind string

const (
	KindPromotion PlanKind = "promotion"
	KindBroadcast PlanKind = "broadcast"
	KindSeries    PlanKind = "series"
	KindOptimal   PlanKind = "optimal"
)

// BlogMeta carries already-extracted blog metadata. The zero value
// degrades a promotion to link-only content.
type BlogMeta struct {
	Title        string
	Description  string
	PreviewImage string
	Keywords     []string
}

// PublishInstruction is one planned post for one account. ItemIndex
// groups the instructions that belong to the same content item. A nil
// ScheduledAt publishes immediately.
type PublishInstruction struct {
	PlanID      string
	ItemIndex   int
	AccountID   string
	Platform    string
	AccountName string
	Content     string
	MediaURLs   []string
	Link        string
	ScheduledAt *time.Time
}

// Submission renders the instruction as an upstream post payload.
func (i PublishInstruction) Submission() publer.PostSubmission {
	sub := publer.PostSubmission{
		Content:   i.Content,
		Accounts:  []string{i.AccountID},
		MediaURLs: i.MediaURLs,
	}
	if i.ScheduledAt != nil {
		sub.ScheduledTime = i.ScheduledAt.UTC().Format(time.RFC3339)
	}
	return sub
}

// SchedulingPlan is the full expansion of one scheduling request.
// Pattern and Spacing are set for series plans, Goal and Timezone for
// optimal-time plans.
type SchedulingPlan struct {
	ID           string
	Kind         PlanKind
	Pattern      timing.Pattern
	Spacing      time.Duration
	Goal         optimal.Goal
	Timezone     string
	CreatedAt    time.Time
	Instructions []PublishInstruction
}

// Items returns the number of content items in the plan.
func (p *SchedulingPlan) Items() int {
	max := -1
	for _, in := range p.Instructions {
		if in.ItemIndex > max {
			max = in.ItemIndex
		}
	}
	return max + 1
}

// SubmissionGroups splits the instructions by content item, in item
// order. Each group is submitted as one upstream call.
func (p *SchedulingPlan) SubmissionGroups() [][]PublishInstruction {
	count := p.Items()
	if count == 0 {
		return nil
	}
	groups := make([][]PublishInstruction, count)
	for _, in := range p.Instructions {
		groups[in.ItemIndex] = append(groups[in.ItemIndex], in)
	}
	return groups
}

// PlatformCounts returns instruction counts keyed by platform.
func (p *SchedulingPlan) PlatformCounts() map[string]int {
	counts := make(map[string]int)
	for _, in := range p.Instructions {
		counts[in.Platform]++
	}
	return counts
}

// FirstScheduled returns the earliest anchor, false when every
// instruction publishes immediately.
func (p *SchedulingPlan) FirstScheduled() (time.Time, bool) {
	var first time.Time
	for _, in := range p.Instructions {
		if in.ScheduledAt == nil {
			continue
		}
		if first.IsZero() || in.ScheduledAt.Before(first) {
			first = *in.ScheduledAt
		}
	}
	return first, !first.IsZero()
}

// LastScheduled returns the latest anchor, false when every
// instruction publishes immediately.
func (p *SchedulingPlan) LastScheduled() (time.Time, bool) {
	var last time.Time
	for _, in := range p.Instructions {
		if in.ScheduledAt == nil {
			continue
		}
		if in.ScheduledAt.After(last) {
			last = *in.ScheduledAt
		}
	}
	return last, !last.IsZero()
}

// DurationDescription renders how long a series plan spans.
func (p *SchedulingPlan) DurationDescription() string {
	count := p.Items()
	switch p.Pattern {
	case timing.PatternDaily:
		return fmt.Sprintf("%d days (daily posting)", count)
	case timing.PatternWeekly:
		return fmt.Sprintf("%d weeks (weekly posting)", count)
	case timing.PatternCustom:
		hours := float64(count-1) * p.Spacing.Hours()
		switch {
		case hours < 24:
			return fmt.Sprintf("%.0f hours", hours)
		case hours < 168:
			return fmt.Sprintf("%.1f days", hours/24)
		default:
			return fmt.Sprintf("%.1f weeks", hours/168)
		}
	default:
		return "immediate posting"
	}
}

func newPlanID() string {
	id := uuid.New()
	return fmt.Sprintf("batch_%x", id[:4])
}
