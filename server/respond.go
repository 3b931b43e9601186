package server

import (
	"encoding/json"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/publer"
)

// jsonResult renders a payload as the tool's text result.
func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorPayload maps an engine error onto the stable status vocabulary
// callers branch on. Every payload names what failed and, where one is
// known, the next action to take.
func errorPayload(err error) map[string]any {
	payload := map[string]any{"error": err.Error()}
	var fallbackAction string

	switch {
	case errors.IsAuthentication(err):
		payload["status"] = "authentication_failed"
		fallbackAction = "Check the API key against the Publer dashboard"
	case errors.IsWorkspaceRequired(err):
		payload["status"] = "workspace_required"
		fallbackAction = "Pass a workspace_id argument or set SYNDIC_WORKSPACE_ID"
	case errors.IsRateLimited(err):
		payload["status"] = "rate_limited"
		fallbackAction = "Wait before retrying. Consider reducing concurrent requests."
		if after, ok := errors.RetryAfter(err); ok {
			payload["retry_after_seconds"] = int(math.Ceil(after.Seconds()))
		}
	case errors.IsUnknownOutcome(err):
		payload["status"] = "unknown_outcome"
		fallbackAction = "Check job status before resubmitting to avoid duplicate posts"
	case errors.IsValidation(err), errors.IsPlatformInvalid(err):
		payload["status"] = "validation_failed"
	case errors.IsNotFoundError(err):
		payload["status"] = "not_found"
	case errors.Is(err, errors.ErrSubmission):
		payload["status"] = "submission_error"
		payload["retry_recommended"] = true
	default:
		payload["status"] = "api_error"
		payload["retry_recommended"] = true
	}

	if action := firstHint(err); action != "" {
		payload["action_required"] = action
	} else if fallbackAction != "" {
		payload["action_required"] = fallbackAction
	}
	return payload
}

// planErrorResult renders a planning error, attaching the workspace's
// active accounts when the caller targeted an invalid platform id.
func planErrorResult(err error, accounts []publer.Account) (*mcp.CallToolResult, error) {
	payload := errorPayload(err)
	if errors.IsPlatformInvalid(err) {
		payload["available_accounts"] = availableAccounts(accounts)
	}
	return jsonResult(payload)
}

// availableAccounts lists the active accounts a caller can target.
func availableAccounts(accounts []publer.Account) []map[string]any {
	entries := make([]map[string]any, 0, len(accounts))
	for _, acc := range accounts {
		if !acc.Active() {
			continue
		}
		entries = append(entries, map[string]any{
			"id":       string(acc.ID),
			"platform": acc.Type,
			"name":     acc.Name,
		})
	}
	return entries
}

func firstHint(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
