package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/publer"
	"github.com/plexura/syndic/track"
)

func (s *Server) handleJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID, err := request.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(jobID) == "" {
		return jsonResult(map[string]any{
			"status":          "validation_failed",
			"error":           "Job ID cannot be empty",
			"action_required": "Provide the job_id returned from a scheduling tool",
		})
	}

	creds := s.credentials(request)
	if err := s.preflight(creds, true); err != nil {
		return jsonResult(errorPayload(err))
	}
	if err := s.governor.Admit(1); err != nil {
		return jsonResult(errorPayload(err))
	}

	status, err := s.client.JobStatus(ctx, creds, jobID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return jsonResult(map[string]any{
				"status":          "job_not_found",
				"job_id":          jobID,
				"error":           fmt.Sprintf("Job '%s' not found", jobID),
				"action_required": "Verify the job_id is correct and was created in your workspace",
				"possible_causes": []string{
					"Job ID was mistyped",
					"Job was created in a different workspace",
					"Job is too old and has been archived",
					"Job ID doesn't exist",
				},
			})
		}
		return jsonResult(errorPayload(err))
	}

	return jsonResult(reportPayload(track.BuildReport(jobID, status)))
}

// reportPayload renders a normalized job report for the caller.
func reportPayload(report *track.Report) map[string]any {
	payload := map[string]any{
		"job_id":         report.JobID,
		"status":         string(report.State),
		"status_message": report.Message,
		"progress": map[string]any{
			"total_posts":         report.Progress.TotalPosts,
			"completed_posts":     report.Progress.CompletedPosts,
			"failed_posts":        report.Progress.FailedPosts,
			"pending_posts":       report.Progress.PendingPosts,
			"progress_percentage": report.Progress.Percentage,
		},
		"results": resultEntries(report.Results),
		"timing": map[string]any{
			"created_at":           report.Timing.CreatedAt,
			"started_at":           report.Timing.StartedAt,
			"completed_at":         report.Timing.CompletedAt,
			"estimated_completion": report.Timing.EstimatedCompletion,
		},
	}
	if report.Engagement != nil {
		payload["engagement_summary"] = report.Engagement
	}
	if len(report.Errors) > 0 {
		payload["errors"] = report.Errors
	}
	return payload
}

func resultEntries(results []track.ResultSummary) []map[string]any {
	entries := make([]map[string]any, 0, len(results))
	for _, r := range results {
		entry := map[string]any{
			"platform":        r.Platform,
			"account_name":    r.AccountName,
			"post_id":         r.PostID,
			"status":          r.Status,
			"content_preview": r.ContentPreview,
		}
		if r.PublishedAt != "" {
			entry["published_at"] = r.PublishedAt
		}
		if r.ScheduledTime != "" {
			entry["scheduled_time"] = r.ScheduledTime
		}
		if r.Engagement != nil {
			entry["engagement"] = r.Engagement
		}
		if r.ErrorMessage != "" {
			entry["error_message"] = r.ErrorMessage
		}
		if r.PostURL != "" {
			entry["post_url"] = r.PostURL
		}
		entries = append(entries, entry)
	}
	return entries
}

func (s *Server) handleMonitorJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := track.ActivityFilter{
		Status:    request.GetString("status_filter", "all"),
		TimeRange: request.GetString("time_range", "24h"),
		Limit:     request.GetInt("limit", 10),
	}
	if err := filter.Validate(); err != nil {
		return jsonResult(errorPayload(err))
	}

	creds := s.credentials(request)
	if err := s.preflight(creds, true); err != nil {
		return jsonResult(errorPayload(err))
	}
	if err := s.governor.Admit(1); err != nil {
		return jsonResult(errorPayload(err))
	}

	// Fetch beyond the limit so a status filter still has candidates
	// after non-matching posts are dropped.
	posts, err := s.client.Posts(ctx, creds, publer.PostFilter{
		Since: filter.Since(s.now()),
		Limit: filter.Limit * 2,
	})
	if err != nil {
		return jsonResult(errorPayload(err))
	}

	report, err := s.monitor.Scan(posts, filter)
	if err != nil {
		return jsonResult(errorPayload(err))
	}

	payload := map[string]any{
		"status":      "success",
		"recent_jobs": activityEntries(report.Activities),
		"summary": map[string]any{
			"total_jobs":             report.Summary.TotalJobs,
			"pending":                report.Summary.Pending,
			"scheduled":              report.Summary.Scheduled,
			"in_progress":            report.Summary.InProgress,
			"completed":              report.Summary.Completed,
			"failed":                 report.Summary.Failed,
			"success_rate":           report.Summary.SuccessRate,
			"time_range":             report.Summary.TimeRange,
			"jobs_needing_attention": len(report.Attention),
		},
		"filters_applied": map[string]any{
			"status_filter": filter.Status,
			"time_range":    filter.TimeRange,
			"limit":         filter.Limit,
		},
	}
	if len(report.Attention) > 0 {
		payload["attention_needed"] = attentionEntries(report.Attention)
	}
	return jsonResult(payload)
}

func activityEntries(activities []track.Activity) []map[string]any {
	entries := make([]map[string]any, 0, len(activities))
	for _, a := range activities {
		entry := map[string]any{
			"job_id":          a.JobID,
			"job_type":        a.JobType,
			"status":          string(a.State),
			"created_at":      a.CreatedAt,
			"platforms":       a.Platforms,
			"posts_count":     1,
			"content_preview": a.ContentPreview,
		}
		if a.ScheduledTime != "" {
			entry["scheduled_time"] = a.ScheduledTime
		}
		if a.ErrorMessage != "" {
			entry["error_message"] = a.ErrorMessage
		}
		entries = append(entries, entry)
	}
	return entries
}

func attentionEntries(items []track.AttentionItem) []map[string]any {
	entries := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry := map[string]any{
			"job_id": item.JobID,
			"reason": item.Reason,
			"action": item.Action,
		}
		if item.Error != "" {
			entry["error"] = item.Error
		}
		entries = append(entries, entry)
	}
	return entries
}
