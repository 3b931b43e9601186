package server

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/plexura/syndic/content"
	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/plan"
	"github.com/plexura/syndic/publer"
	"github.com/plexura/syndic/track"
)

func (s *Server) handleBlogScheduler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blogURL, err := request.RequireString("blog_url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	creds := s.credentials(request)
	if err := s.preflight(creds, true); err != nil {
		return jsonResult(errorPayload(err))
	}

	// The article fetch never consumes Publer budget. A malformed URL
	// fails the call; an unreachable article degrades the promotion to
	// link-only content.
	analysis, err := s.extractor.Analyze(ctx, blogURL)
	if err != nil {
		if errors.IsValidation(err) {
			return jsonResult(errorPayload(err))
		}
		s.logger.Warnw("Blog analysis degraded", "url", blogURL, "error", err)
		analysis = content.Degraded(blogURL, err)
	}

	if err := s.governor.Admit(1); err != nil {
		return jsonResult(errorPayload(err))
	}
	accounts, err := s.client.Accounts(ctx, creds)
	if err != nil {
		return jsonResult(errorPayload(err))
	}

	p, err := s.planner.PlanPromotion(plan.PromotionRequest{
		BlogURL:        blogURL,
		Message:        message,
		TargetAccounts: request.GetStringSlice("target_platforms", nil),
		ScheduleTime:   request.GetString("schedule_time", ""),
		IncludePreview: request.GetBool("include_preview", true),
		Blog: plan.BlogMeta{
			Title:        analysis.Title,
			Description:  analysis.Description,
			PreviewImage: analysis.PreviewImage,
			Keywords:     analysis.Keywords,
		},
	}, accounts)
	if err != nil {
		return planErrorResult(err, accounts)
	}

	if err := s.governor.Admit(1); err != nil {
		return jsonResult(errorPayload(err))
	}
	receipt, err := s.submitSingle(ctx, creds, p)
	if err != nil {
		return jsonResult(errorPayload(err))
	}

	targets := targetedAccounts(accounts, p)
	blogTitle := analysis.Title
	if blogTitle == "" {
		blogTitle = "Unknown"
	}
	return jsonResult(map[string]any{
		"status":          "job_submitted",
		"job_id":          receipt.JobID,
		"scheduled_posts": s.scheduledPostEntries(p, false),
		"blog_analysis":   analysis,
		"summary": map[string]any{
			"total_platforms": len(targets),
			"blog_title":      blogTitle,
			"estimated_reach": plan.EstimatedReach(targets),
		},
	})
}

func (s *Server) handleMultiScheduler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
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

	p, err := s.planner.PlanBroadcast(plan.BroadcastRequest{
		Content:        text,
		TargetAccounts: request.GetStringSlice("target_platforms", nil),
		Customizations: stringMapArgument(request, "customizations"),
		MediaURLs:      request.GetStringSlice("media_urls", nil),
		ScheduleTime:   request.GetString("schedule_time", ""),
	}, accounts)
	if err != nil {
		return planErrorResult(err, accounts)
	}

	if err := s.governor.Admit(1); err != nil {
		return jsonResult(errorPayload(err))
	}
	receipt, err := s.submitSingle(ctx, creds, p)
	if err != nil {
		return jsonResult(errorPayload(err))
	}

	targets := targetedAccounts(accounts, p)
	return jsonResult(map[string]any{
		"status":          "job_submitted",
		"job_id":          receipt.JobID,
		"scheduled_posts": s.scheduledPostEntries(p, true),
		"summary": map[string]any{
			"total_platforms":   len(targets),
			"platforms_by_type": p.PlatformCounts(),
			"total_posts":       len(p.Instructions),
			"estimated_reach":   plan.EstimatedReach(targets),
		},
	})
}

// submitSingle submits a single-item plan and reduces the batch result
// to its one receipt.
func (s *Server) submitSingle(ctx context.Context, creds publer.Credentials, p *plan.SchedulingPlan) (track.ItemReceipt, error) {
	result, err := s.submitter.Submit(ctx, creds, p)
	if err != nil {
		return track.ItemReceipt{}, err
	}
	if len(result.Failures) > 0 {
		return track.ItemReceipt{}, result.Failures[0].Err
	}
	if len(result.Receipts) == 0 {
		return track.ItemReceipt{}, errors.NewSubmissionError("submission produced no receipt")
	}
	return result.Receipts[0], nil
}

// scheduledPostEntries renders the plan's instructions for the caller.
func (s *Server) scheduledPostEntries(p *plan.SchedulingPlan, withCapabilities bool) []map[string]any {
	entries := make([]map[string]any, 0, len(p.Instructions))
	for _, in := range p.Instructions {
		media := in.MediaURLs
		if media == nil {
			media = []string{}
		}
		entry := map[string]any{
			"platform":       in.Platform,
			"account_id":     in.AccountID,
			"account_name":   in.AccountName,
			"content":        in.Content,
			"media":          media,
			"scheduled_time": scheduledOrImmediate(in.ScheduledAt),
		}
		if withCapabilities {
			entry["capabilities"] = s.registry.Capabilities(in.Platform)
		}
		entries = append(entries, entry)
	}
	return entries
}

func scheduledOrImmediate(at *time.Time) string {
	if at == nil {
		return "immediate"
	}
	return at.UTC().Format(time.RFC3339)
}

// targetedAccounts returns the unique accounts a plan posts to, in
// instruction order, for reach and summary reporting.
func targetedAccounts(accounts []publer.Account, p *plan.SchedulingPlan) []publer.Account {
	byID := make(map[string]publer.Account, len(accounts))
	for _, acc := range accounts {
		byID[string(acc.ID)] = acc
	}
	seen := make(map[string]struct{}, len(p.Instructions))
	var targets []publer.Account
	for _, in := range p.Instructions {
		if _, ok := seen[in.AccountID]; ok {
			continue
		}
		seen[in.AccountID] = struct{}{}
		if acc, ok := byID[in.AccountID]; ok {
			targets = append(targets, acc)
		}
	}
	return targets
}

// stringMapArgument reads an object argument whose values are strings.
// Non-string values are dropped.
func stringMapArgument(request mcp.CallToolRequest, key string) map[string]string {
	raw, ok := request.GetArguments()[key].(map[string]any)
	if !ok {
		return nil
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if text, ok := v.(string); ok {
			values[k] = text
		}
	}
	return values
}
