package track

import (
	"time"

	"github.com/plexura/syndic/plan"
)

// SeriesSummary describes one submitted series for reporting.
type SeriesSummary struct {
	TotalContentItems     int
	SuccessfulSubmissions int
	FailedSubmissions     int
	TotalScheduledPosts   int
	PlatformsUsed         int
	SchedulePattern       string
	EstimatedCompletion   string
	Duration              string
}

// BuildSeriesSummary summarizes a submitted plan. EstimatedCompletion
// is the latest anchor in the plan, or "immediate" when every item
// publishes right away.
func BuildSeriesSummary(p *plan.SchedulingPlan, result *BatchResult) SeriesSummary {
	platforms := len(p.PlatformCounts())
	summary := SeriesSummary{
		TotalContentItems:     p.Items(),
		SuccessfulSubmissions: len(result.Receipts),
		FailedSubmissions:     len(result.Failures),
		TotalScheduledPosts:   len(result.Receipts) * platforms,
		PlatformsUsed:         platforms,
		SchedulePattern:       string(p.Pattern),
		EstimatedCompletion:   "immediate",
		Duration:              p.DurationDescription(),
	}
	if last, ok := p.LastScheduled(); ok {
		summary.EstimatedCompletion = last.UTC().Format(time.RFC3339)
	}
	return summary
}
