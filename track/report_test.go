package track

import (
	"testing"
	"time"

	"github.com/plexura/syndic/plan"
	"github.com/plexura/syndic/plan/timing"
)

func TestBuildSeriesSummaryDaily(t *testing.T) {
	first := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	p := &plan.SchedulingPlan{
		ID:      "batch_12345678",
		Kind:    plan.KindSeries,
		Pattern: timing.PatternDaily,
		Instructions: []plan.PublishInstruction{
			{ItemIndex: 0, AccountID: "tw-1", Platform: "twitter", Content: "one", ScheduledAt: &first},
			{ItemIndex: 0, AccountID: "li-1", Platform: "linkedin", Content: "one", ScheduledAt: &first},
			{ItemIndex: 1, AccountID: "tw-1", Platform: "twitter", Content: "two", ScheduledAt: &second},
			{ItemIndex: 1, AccountID: "li-1", Platform: "linkedin", Content: "two", ScheduledAt: &second},
		},
	}
	result := &BatchResult{
		PlanID: p.ID,
		Receipts: []ItemReceipt{
			{PostNumber: 1, JobID: "job-1"},
			{PostNumber: 2, JobID: "job-2"},
		},
	}

	summary := BuildSeriesSummary(p, result)

	if summary.TotalContentItems != 2 {
		t.Errorf("TotalContentItems = %d", summary.TotalContentItems)
	}
	if summary.SuccessfulSubmissions != 2 || summary.FailedSubmissions != 0 {
		t.Errorf("submissions = %d/%d", summary.SuccessfulSubmissions, summary.FailedSubmissions)
	}
	if summary.PlatformsUsed != 2 {
		t.Errorf("PlatformsUsed = %d", summary.PlatformsUsed)
	}
	if summary.TotalScheduledPosts != 4 {
		t.Errorf("TotalScheduledPosts = %d", summary.TotalScheduledPosts)
	}
	if summary.SchedulePattern != "daily" {
		t.Errorf("SchedulePattern = %q", summary.SchedulePattern)
	}
	if summary.EstimatedCompletion != "2026-03-11T09:00:00Z" {
		t.Errorf("EstimatedCompletion = %q", summary.EstimatedCompletion)
	}
	if summary.Duration != "2 days (daily posting)" {
		t.Errorf("Duration = %q", summary.Duration)
	}
}

func TestBuildSeriesSummaryImmediate(t *testing.T) {
	p := &plan.SchedulingPlan{
		ID:      "batch_87654321",
		Kind:    plan.KindSeries,
		Pattern: timing.PatternImmediate,
		Instructions: []plan.PublishInstruction{
			{ItemIndex: 0, AccountID: "tw-1", Platform: "twitter", Content: "one"},
			{ItemIndex: 1, AccountID: "tw-1", Platform: "twitter", Content: "two"},
		},
	}
	result := &BatchResult{
		PlanID:   p.ID,
		Receipts: []ItemReceipt{{PostNumber: 1, JobID: "job-1"}},
		Failures: []ItemFailure{{PostNumber: 2}},
	}

	summary := BuildSeriesSummary(p, result)

	if summary.EstimatedCompletion != "immediate" {
		t.Errorf("EstimatedCompletion = %q", summary.EstimatedCompletion)
	}
	if summary.Duration != "immediate posting" {
		t.Errorf("Duration = %q", summary.Duration)
	}
	if summary.SuccessfulSubmissions != 1 || summary.FailedSubmissions != 1 {
		t.Errorf("submissions = %d/%d", summary.SuccessfulSubmissions, summary.FailedSubmissions)
	}
	if summary.TotalScheduledPosts != 1 {
		t.Errorf("TotalScheduledPosts = %d", summary.TotalScheduledPosts)
	}
}
