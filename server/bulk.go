package server

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/plan"
	"github.com/plexura/syndic/plan/timing"
	"github.com/plexura/syndic/track"
)

func (s *Server) handleBulkScheduler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patternArg, err := request.RequireString("pattern")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pattern, err := timing.ParsePattern(patternArg)
	if err != nil {
		return jsonResult(errorPayload(err))
	}
	items, err := parseSeriesItems(request.GetArguments())
	if err != nil {
		return jsonResult(errorPayload(err))
	}

	creds := s.credentials(request)
	if err := s.preflight(creds, true); err != nil {
		return jsonResult(errorPayload(err))
	}
	if err := s.governor.Admit(1); err != nil {
		return jsonResult(errorPayload(err))
	}
	accounts, err := s.client.Accounts(ctx, creds)
	if err != nil {
		return jsonResult(errorPayload(err))
	}

	p, err := s.planner.PlanSeries(plan.SeriesRequest{
		Items:          items,
		TargetAccounts: request.GetStringSlice("target_platforms", nil),
		Pattern:        pattern,
		StartDate:      request.GetString("start_date", ""),
		SpacingHours:   request.GetInt("spacing", 24),
		Jitter:         request.GetBool("jitter", false),
	}, accounts)
	if err != nil {
		return planErrorResult(err, accounts)
	}

	// One upstream submission per content item.
	if err := s.governor.Admit(p.Items()); err != nil {
		return jsonResult(errorPayload(err))
	}
	result, err := s.submitter.Submit(ctx, creds, p)
	if err != nil {
		payload := errorPayload(err)
		payload["batch_id"] = p.ID
		if ids := result.JobIDs(); len(ids) > 0 {
			payload["job_ids"] = ids
		}
		return jsonResult(payload)
	}

	if result.Status() == track.BatchFailed {
		return jsonResult(map[string]any{
			"status":             string(track.BatchFailed),
			"batch_id":           p.ID,
			"error":              "All job submissions failed",
			"failed_submissions": failureEntries(result.Failures),
			"retry_recommended":  true,
		})
	}

	summary := track.BuildSeriesSummary(p, result)
	payload := map[string]any{
		"status":           string(result.Status()),
		"batch_id":         p.ID,
		"job_ids":          result.JobIDs(),
		"scheduled_series": seriesEntries(p, result, items),
		"series_summary": map[string]any{
			"total_content_items":    summary.TotalContentItems,
			"successful_submissions": summary.SuccessfulSubmissions,
			"failed_submissions":     summary.FailedSubmissions,
			"total_scheduled_posts":  summary.TotalScheduledPosts,
			"platforms_used":         summary.PlatformsUsed,
			"schedule_pattern":       summary.SchedulePattern,
			"estimated_completion":   summary.EstimatedCompletion,
			"duration_calculation":   summary.Duration,
		},
	}
	if len(result.Failures) > 0 {
		payload["failed_submissions"] = failureEntries(result.Failures)
	}
	return jsonResult(payload)
}

// parseSeriesItems decodes the content_series argument. Every entry
// needs non-empty content text; media_urls and schedule_time are
// optional.
func parseSeriesItems(args map[string]any) ([]plan.SeriesItem, error) {
	raw, ok := args["content_series"].([]any)
	if !ok || len(raw) == 0 {
		return nil, errors.WithHint(
			errors.NewValidationError("content series cannot be empty"),
			"Provide at least one content item")
	}
	items := make([]plan.SeriesItem, 0, len(raw))
	for i, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, errors.WithHint(
				errors.NewValidationError("content item %d must be an object", i+1),
				"Each series entry needs at least a content field")
		}
		text, _ := fields["content"].(string)
		if strings.TrimSpace(text) == "" {
			return nil, errors.WithHint(
				errors.NewValidationError("content item %d is missing required content text", i+1),
				"Provide non-empty content for all posts")
		}
		item := plan.SeriesItem{Content: text}
		if scheduleTime, ok := fields["schedule_time"].(string); ok {
			item.ScheduleTime = scheduleTime
		}
		if mediaRaw, ok := fields["media_urls"].([]any); ok {
			for _, m := range mediaRaw {
				if u, ok := m.(string); ok {
					item.MediaURLs = append(item.MediaURLs, u)
				}
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// seriesEntries renders the per-item view of a submitted series,
// attaching each accepted item's job id.
func seriesEntries(p *plan.SchedulingPlan, result *track.BatchResult, items []plan.SeriesItem) []map[string]any {
	receipts := make(map[int]track.ItemReceipt, len(result.Receipts))
	for _, r := range result.Receipts {
		receipts[r.PostNumber] = r
	}

	groups := p.SubmissionGroups()
	entries := make([]map[string]any, 0, len(groups))
	for i, group := range groups {
		platformIDs := make([]string, 0, len(group))
		details := make([]map[string]any, 0, len(group))
		for _, in := range group {
			platformIDs = append(platformIDs, in.AccountID)
			details = append(details, map[string]any{
				"id":   in.AccountID,
				"type": in.Platform,
				"name": in.AccountName,
			})
		}
		// All instructions in a group share the item's anchor.
		scheduled := "immediate"
		if len(group) > 0 {
			scheduled = scheduledOrImmediate(group[0].ScheduledAt)
		}

		entry := map[string]any{
			"post_number":      i + 1,
			"content":          items[i].Content,
			"platforms":        platformIDs,
			"platform_details": details,
			"scheduled_time":   scheduled,
			"media_count":      len(items[i].MediaURLs),
			"batch_id":         p.ID,
		}
		if receipt, ok := receipts[i+1]; ok {
			entry["job_id"] = receipt.JobID
		}
		entries = append(entries, entry)
	}
	return entries
}

func failureEntries(failures []track.ItemFailure) []map[string]any {
	entries := make([]map[string]any, 0, len(failures))
	for _, f := range failures {
		entries = append(entries, map[string]any{
			"post_number": f.PostNumber,
			"error":       f.Err.Error(),
		})
	}
	return entries
}
