package server

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/geotime"
	"github.com/plexura/syndic/plan"
	"github.com/plexura/syndic/plan/optimal"
)

func (s *Server) handleOptimalScheduler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	goal, err := optimal.ParseGoal(request.GetString("goal", ""))
	if err != nil {
		return jsonResult(errorPayload(err))
	}
	dateRange, err := optimal.ParseDateRange(request.GetString("date_range", ""))
	if err != nil {
		return jsonResult(errorPayload(err))
	}
	tz, err := geotime.NormalizeTimezone(request.GetString("timezone", "UTC"))
	if err != nil {
		return jsonResult(errorPayload(err))
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
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

	targetAccounts, err := plan.ResolveTargets(request.GetStringSlice("target_platforms", nil), accounts)
	if err != nil {
		return planErrorResult(err, accounts)
	}
	targets := make([]optimal.Target, 0, len(targetAccounts))
	for _, acc := range targetAccounts {
		targets = append(targets, optimal.Target{
			AccountID: string(acc.ID),
			Platform:  acc.Type,
			Name:      acc.Name,
		})
	}

	if err := s.governor.Admit(1); err != nil {
		return jsonResult(errorPayload(err))
	}
	insights, err := s.client.MemberAnalytics(ctx, creds)
	if err != nil {
		if errors.IsAuthentication(err) || errors.IsRateLimited(err) {
			return jsonResult(errorPayload(err))
		}
		// A degraded analytics surface falls through to the fallback
		// policy rather than failing the whole scheduling call.
		s.logger.Warnw("Timing analytics unavailable", "error", err)
		insights = nil
	}

	decision, selErr := s.selector.Select(insights, targets, dateRange)
	if selErr != nil {
		s.logger.Infow("No usable timing recommendation, applying fallback", "error", selErr)
	}

	p, err := s.planner.PlanOptimal(plan.OptimalRequest{
		Content:        text,
		TargetAccounts: request.GetStringSlice("target_platforms", nil),
		Goal:           goal,
		Timezone:       tz,
		DateRange:      dateRange,
		FallbackTime:   request.GetString("fallback_time", ""),
	}, accounts, decision)
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

	selectedTime := "immediate"
	strategy := "Immediate posting (no usable timing recommendations)"
	estimate := "Better timing than random posting"
	switch {
	case !decision.SelectedTime.IsZero():
		selectedTime = decision.SelectedTime.UTC().Format(time.RFC3339)
		strategy = optimal.StrategyDescription(goal, decision.SelectedTime, loc)
		estimate = optimal.PerformanceEstimate(goal, decision.MeanConfidence)
	default:
		if at, ok := p.FirstScheduled(); ok {
			selectedTime = at.UTC().Format(time.RFC3339)
			strategy = "Scheduled at the requested fallback time"
			estimate = optimal.PerformanceEstimate(goal, 0)
		}
	}

	dataPoints := 0
	for _, insight := range insights {
		dataPoints += len(insight.BestTimes)
	}

	return jsonResult(map[string]any{
		"status": "optimized_job_submitted",
		"job_id": receipt.JobID,
		"optimization_results": map[string]any{
			"selected_time":      selectedTime,
			"optimization_goal":  string(goal),
			"timezone":           tz,
			"average_confidence": round2(decision.MeanConfidence),
			"platforms_analyzed": len(targets),
			"data_points_used":   dataPoints,
			"analysis_period":    "last_30_days",
			"recommended_times":  recommendationEntries(decision.Considered),
		},
		"scheduled_posts": optimalPostEntries(p, decision),
		"summary": map[string]any{
			"total_platforms":       len(targets),
			"selected_strategy":     strategy,
			"estimated_performance": estimate,
		},
	})
}

// recommendationEntries echoes every per-account recommendation the
// selection considered, discarded ones included, so callers can see why
// a time was or was not chosen.
func recommendationEntries(candidates []optimal.Candidate) []map[string]any {
	entries := make([]map[string]any, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, map[string]any{
			"platform":     c.Platform,
			"account_id":   c.AccountID,
			"account_name": c.Name,
			"optimal_time": c.Time.UTC().Format(time.RFC3339),
			"confidence":   round2(c.Confidence),
			"reasoning":    c.Reasoning,
		})
	}
	return entries
}

// optimalPostEntries renders the plan's instructions joined with each
// account's considered recommendation.
func optimalPostEntries(p *plan.SchedulingPlan, decision *optimal.Decision) []map[string]any {
	byAccount := make(map[string]optimal.Candidate, len(decision.Considered))
	for _, c := range decision.Considered {
		byAccount[c.AccountID] = c
	}

	entries := make([]map[string]any, 0, len(p.Instructions))
	for _, in := range p.Instructions {
		entry := map[string]any{
			"platform":       in.Platform,
			"account_id":     in.AccountID,
			"account_name":   in.AccountName,
			"scheduled_time": scheduledOrImmediate(in.ScheduledAt),
		}
		if c, ok := byAccount[in.AccountID]; ok {
			entry["confidence"] = round2(c.Confidence)
			entry["reasoning"] = c.Reasoning
		}
		entries = append(entries, entry)
	}
	return entries
}
