// Package track submits scheduling plans upstream and normalizes job
// progress for reporting.
//
// The upstream API speaks several overlapping status vocabularies:
// jobs report completed/in_progress/failed/scheduled, per-post results
// report published/scheduled/failed, and the posts feed adds
// processing and uploading. This package folds all of them into one
// State lifecycle so callers reason about a single vocabulary.
package track

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/plexura/syndic/publer"
)

// State is the normalized lifecycle of tracked work.
type State string

const (
	StatePending         State = "pending"
	StateScheduled       State = "scheduled"
	StateInProgress      State = "in_progress"
	StateCompleted       State = "completed"
	StatePartiallyFailed State = "partially_failed"
	StateFailed          State = "failed"
	StateRejected        State = "rejected"
)

// IsValidState reports whether s names a known state.
func IsValidState(s string) bool {
	switch State(s) {
	case StatePending, StateScheduled, StateInProgress, StateCompleted,
		StatePartiallyFailed, StateFailed, StateRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the state can still change.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StatePartiallyFailed, StateFailed, StateRejected:
		return true
	default:
		return false
	}
}

// ProgressSummary counts a job's posts by outcome.
type ProgressSummary struct {
	TotalPosts     int
	CompletedPosts int
	FailedPosts    int
	PendingPosts   int
	Percentage     int
}

// ResultSummary is the normalized view of one per-post result.
type ResultSummary struct {
	Platform       string
	AccountName    string
	PostID         string
	Status         string
	PublishedAt    string
	ScheduledTime  string
	ContentPreview string
	Engagement     *publer.Engagement
	ErrorMessage   string
	PostURL        string
}

// Timing carries the upstream job timestamps in their ISO string form.
type Timing struct {
	CreatedAt           string
	StartedAt           string
	CompletedAt         string
	EstimatedCompletion string
}

// Report is the normalized view of one upstream job.
type Report struct {
	JobID      string
	State      State
	RawStatus  string
	Message    string
	Progress   ProgressSummary
	Results    []ResultSummary
	Engagement *publer.Engagement
	Errors     []publer.JobError
	Timing     Timing
}

const previewRunes = 100

// BuildReport normalizes an upstream job status response.
//
// A post counts as completed when its result reports published or
// scheduled. A completed job with failed posts lands in
// partially_failed. When the response carries no per-post results the
// progress block stands in for the counts.
func BuildReport(jobID string, js *publer.JobStatus) *Report {
	progress := summarizeProgress(js)
	state := normalizeJobState(js.Status, progress.FailedPosts)

	report := &Report{
		JobID:     jobID,
		State:     state,
		RawStatus: js.Status,
		Message:   statusMessage(state, js.Status, progress, len(js.Errors)),
		Progress:  progress,
		Errors:    js.Errors,
		Timing: Timing{
			CreatedAt:           js.CreatedAt,
			StartedAt:           js.StartedAt,
			CompletedAt:         js.CompletedAt,
			EstimatedCompletion: js.EstimatedCompletion,
		},
	}

	var engagement publer.Engagement
	for _, result := range js.Results {
		summary := ResultSummary{
			Platform:       orUnknown(result.Platform),
			AccountName:    result.AccountName,
			PostID:         string(result.PostID),
			Status:         orUnknown(result.Status),
			PublishedAt:    result.PublishedAt,
			ScheduledTime:  result.ScheduledTime,
			ContentPreview: preview(result.Content),
			Engagement:     result.Engagement,
			PostURL:        result.PostURL,
		}
		if result.Status == "failed" {
			summary.ErrorMessage = result.ErrorMessage
		}
		if result.Engagement != nil {
			engagement.Add(*result.Engagement)
		}
		report.Results = append(report.Results, summary)
	}
	if !engagement.Zero() {
		report.Engagement = &engagement
	}
	return report
}

func summarizeProgress(js *publer.JobStatus) ProgressSummary {
	var p ProgressSummary
	if len(js.Results) > 0 {
		p.TotalPosts = len(js.Results)
		for _, result := range js.Results {
			switch result.Status {
			case "published", "scheduled":
				p.CompletedPosts++
			case "failed":
				p.FailedPosts++
			}
		}
	} else if js.Progress != nil {
		p.TotalPosts = js.Progress.TotalPosts
		p.CompletedPosts = js.Progress.CompletedPosts
	}
	p.PendingPosts = p.TotalPosts - p.CompletedPosts - p.FailedPosts
	if p.TotalPosts > 0 {
		p.Percentage = int(math.Round(float64(p.CompletedPosts) / float64(p.TotalPosts) * 100))
	}
	return p
}

func normalizeJobState(raw string, failedPosts int) State {
	switch raw {
	case "completed", "complete":
		if failedPosts > 0 {
			return StatePartiallyFailed
		}
		return StateCompleted
	case "failed", "error":
		return StateFailed
	case "in_progress", "working", "processing", "running":
		return StateInProgress
	case "scheduled":
		return StateScheduled
	case "rejected":
		return StateRejected
	default:
		return StatePending
	}
}

func statusMessage(state State, raw string, p ProgressSummary, errorCount int) string {
	switch state {
	case StateCompleted:
		return fmt.Sprintf("Job completed successfully. All %d posts published.", p.CompletedPosts)
	case StatePartiallyFailed:
		return fmt.Sprintf("Job completed with issues. %d posts succeeded, %d failed.", p.CompletedPosts, p.FailedPosts)
	case StateInProgress:
		return fmt.Sprintf("Job in progress. %d/%d posts completed (%d%%).", p.CompletedPosts, p.TotalPosts, p.Percentage)
	case StateFailed:
		return fmt.Sprintf("Job failed. %d errors occurred.", errorCount)
	case StateScheduled:
		return fmt.Sprintf("Job scheduled. %d posts waiting for their scheduled times.", p.TotalPosts)
	default:
		return fmt.Sprintf("Job status: %s", orUnknown(raw))
	}
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewRunes]) + "..."
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
