package track

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/publer"
)

// Activity is the job-like view of one recent post.
type Activity struct {
	JobID          string
	JobType        string
	State          State
	CreatedAt      string
	Platforms      []string
	ContentPreview string
	ScheduledTime  string
	ErrorMessage   string
}

// AttentionItem flags work that needs a human look.
type AttentionItem struct {
	JobID  string
	Reason string
	Error  string
	Action string
}

// ActivitySummary aggregates a scan.
type ActivitySummary struct {
	TotalJobs   int
	Pending     int
	Scheduled   int
	InProgress  int
	Completed   int
	Failed      int
	SuccessRate string
	TimeRange   string
}

// ActivityReport is the result of scanning the recent posts feed.
type ActivityReport struct {
	Activities []Activity
	Summary    ActivitySummary
	Attention  []AttentionItem
}

// Scan limits.
const (
	DefaultScanLimit = 10
	MaxScanLimit     = 50
)

// StuckThreshold flags in-progress work older than this.
const StuckThreshold = 2 * time.Hour

var activityRanges = map[string]time.Duration{
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// ActivityFilter bounds a recent-activity scan. Zero fields take the
// defaults: all states, the last 24 hours, ten entries.
type ActivityFilter struct {
	Status    string
	TimeRange string
	Limit     int
}

// Validate normalizes the filter in place.
func (f *ActivityFilter) Validate() error {
	if f.Status == "" {
		f.Status = "all"
	}
	switch f.Status {
	case "all", "pending", "scheduled", "in_progress", "completed", "failed":
	default:
		return errors.WithHint(
			errors.NewValidationError("invalid status filter %q: must be one of all, pending, scheduled, in_progress, completed, failed", f.Status),
			"Choose a valid status filter")
	}
	if f.TimeRange == "" {
		f.TimeRange = "24h"
	}
	if _, ok := activityRanges[f.TimeRange]; !ok {
		return errors.WithHint(
			errors.NewValidationError("invalid time range %q: must be one of 1h, 6h, 24h, 7d, 30d", f.TimeRange),
			"Choose a valid time range")
	}
	if f.Limit == 0 {
		f.Limit = DefaultScanLimit
	}
	if f.Limit < 1 || f.Limit > MaxScanLimit {
		return errors.WithHint(
			errors.NewValidationError("limit %d is outside the allowed range of 1 to %d", f.Limit, MaxScanLimit),
			"Choose a limit between 1 and 50")
	}
	return nil
}

// Since returns the feed cutoff for the filter's time range.
func (f ActivityFilter) Since(now time.Time) time.Time {
	d, ok := activityRanges[f.TimeRange]
	if !ok {
		return time.Time{}
	}
	return now.Add(-d)
}

// Monitor turns the recent posts feed into a job activity view.
type Monitor struct {
	now func() time.Time
}

// NewMonitor returns a monitor on the wall clock.
func NewMonitor() *Monitor {
	return &Monitor{now: time.Now}
}

// Scan maps recent posts into activities, applies the filter, and
// aggregates summary counts, the success rate, and attention flags for
// failed or stuck work.
func (m *Monitor) Scan(posts []publer.Post, filter ActivityFilter) (*ActivityReport, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	report := &ActivityReport{
		Summary: ActivitySummary{TimeRange: filter.TimeRange},
	}

	if len(posts) > filter.Limit {
		posts = posts[:filter.Limit]
	}
	for _, post := range posts {
		state := normalizePostState(post.Status)
		if filter.Status != "all" && string(state) != filter.Status {
			continue
		}

		activity := Activity{
			JobID:          string(post.ID),
			JobType:        inferJobType(post),
			State:          state,
			CreatedAt:      post.CreatedAt,
			Platforms:      postPlatforms(post),
			ContentPreview: preview(post.Content),
			ScheduledTime:  post.ScheduledTime,
		}
		if state == StateFailed {
			activity.ErrorMessage = post.ErrorMessage
		}
		report.Activities = append(report.Activities, activity)

		switch state {
		case StatePending:
			report.Summary.Pending++
		case StateScheduled:
			report.Summary.Scheduled++
		case StateInProgress:
			report.Summary.InProgress++
		case StateCompleted:
			report.Summary.Completed++
		case StateFailed:
			report.Summary.Failed++
		}

		m.flagAttention(report, activity)
	}

	report.Summary.TotalJobs = len(report.Activities)
	rate := 0
	if report.Summary.TotalJobs > 0 {
		rate = int(math.Round(float64(report.Summary.Completed) / float64(report.Summary.TotalJobs) * 100))
	}
	report.Summary.SuccessRate = fmt.Sprintf("%d%%", rate)
	return report, nil
}

func (m *Monitor) flagAttention(report *ActivityReport, activity Activity) {
	switch activity.State {
	case StateFailed:
		message := activity.ErrorMessage
		if message == "" {
			message = "Unknown error"
		}
		report.Attention = append(report.Attention, AttentionItem{
			JobID:  activity.JobID,
			Reason: "Job failed",
			Error:  message,
			Action: "Check job details and retry if needed",
		})
	case StateInProgress:
		created, err := time.Parse(time.RFC3339, activity.CreatedAt)
		if err != nil {
			return
		}
		if m.now().Sub(created) > StuckThreshold {
			report.Attention = append(report.Attention, AttentionItem{
				JobID:  activity.JobID,
				Reason: "Job running too long",
				Action: "Check if job is stuck",
			})
		}
	}
}

func normalizePostState(status string) State {
	switch status {
	case "published":
		return StateCompleted
	case "scheduled", "pending":
		return StateScheduled
	case "failed", "error":
		return StateFailed
	case "processing", "uploading":
		return StateInProgress
	default:
		return StatePending
	}
}

func postPlatforms(post publer.Post) []string {
	platforms := make([]string, 0, len(post.Accounts))
	for _, acc := range post.Accounts {
		platform := acc.Platform
		if platform == "" {
			platform = "unknown"
		}
		platforms = append(platforms, platform)
	}
	return platforms
}

// inferJobType guesses which scheduling shape produced the post.
func inferJobType(post publer.Post) string {
	content := strings.ToLower(post.Content)
	switch {
	case len(post.Accounts) > 1:
		return "multi_platform_scheduler"
	case strings.Contains(content, "http") && (strings.Contains(content, "blog") || strings.Contains(content, "article")):
		return "blog_to_platform_scheduler"
	case len(post.MediaURLs) > 1:
		return "bulk_content_series_scheduler"
	default:
		return "manual_post"
	}
}
