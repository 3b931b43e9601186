package server

import (
	"context"
	"net"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/publer"
)

func (s *Server) handleAccountStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	creds := publer.Credentials{APIKey: s.cfg.Publer.APIKey}
	if err := s.preflight(creds, false); err != nil {
		return accountStatusError(err)
	}
	// users/me + workspaces
	if err := s.governor.Admit(2); err != nil {
		return accountStatusError(err)
	}

	user, err := s.client.Me(ctx, creds)
	if err != nil {
		return accountStatusError(err)
	}
	workspaces, err := s.client.Workspaces(ctx, creds)
	if err != nil {
		return accountStatusError(err)
	}

	entries := make([]map[string]any, 0, len(workspaces))
	for _, ws := range workspaces {
		role := ws.Role
		if role == "" {
			role = "unknown"
		}
		entries = append(entries, map[string]any{
			"id":   string(ws.ID),
			"name": ws.Name,
			"role": role,
		})
	}

	var provided any
	if s.cfg.Publer.DefaultWorkspace != "" {
		provided = s.cfg.Publer.DefaultWorkspace
	}

	s.logger.Infow("Account status verified", "user_id", user.ID, "workspaces", len(workspaces))
	return jsonResult(map[string]any{
		"status": "connected",
		"account": map[string]any{
			"user_id":      string(user.ID),
			"email":        user.Email,
			"name":         user.Name,
			"account_type": user.AccountType,
		},
		"workspaces": map[string]any{
			"available_workspaces":  len(workspaces),
			"workspace_list":        entries,
			"provided_workspace_id": provided,
		},
		"integration_status": map[string]any{
			"authentication":   "success",
			"api_connectivity": "operational",
		},
	})
}

// accountStatusError renders a connectivity-check failure with the
// integration_status block callers use to tell an auth problem from a
// degraded upstream.
func accountStatusError(err error) (*mcp.CallToolResult, error) {
	payload := errorPayload(err)

	auth, connectivity := "unknown", "error"
	switch {
	case errors.IsAuthentication(err):
		auth, connectivity = "failed", "failed"
	case errors.IsRateLimited(err):
		connectivity = "throttled"
	default:
		if isTransportError(err) {
			connectivity = "failed"
		}
	}
	payload["integration_status"] = map[string]any{
		"authentication":   auth,
		"api_connectivity": connectivity,
	}
	return jsonResult(payload)
}

// isTransportError reports whether the request failed before any HTTP
// status was received, meaning the API was never reached.
func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func (s *Server) handleListPlatforms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	if len(accounts) == 0 {
		return jsonResult(map[string]any{
			"status":    "no_platforms_connected",
			"message":   "No social media platforms are currently connected to your workspace.",
			"platforms": []any{},
			"summary": map[string]any{
				"total_platforms":    0,
				"active_platforms":   0,
				"inactive_platforms": 0,
			},
		})
	}

	platforms := make([]map[string]any, 0, len(accounts))
	byType := make(map[string]int)
	contentTypes := make(map[string]struct{})
	active := 0
	for _, acc := range accounts {
		platform := acc.Type
		if platform == "" {
			platform = "unknown"
		}
		platforms = append(platforms, map[string]any{
			"account_id":           string(acc.ID),
			"platform":             platform,
			"account_name":         acc.Name,
			"status":               acc.Status,
			"is_active":            acc.Active(),
			"posting_capabilities": s.registry.Capabilities(platform),
			"profile_info": map[string]any{
				"username":        acc.Username,
				"profile_picture": acc.ProfilePicture,
				"follower_count":  acc.FollowerCount,
			},
		})
		byType[platform]++
		if acc.Active() {
			active++
			for _, capability := range s.registry.Capabilities(platform) {
				contentTypes[capability] = struct{}{}
			}
		}
	}

	supported := make([]string, 0, len(contentTypes))
	for capability := range contentTypes {
		supported = append(supported, capability)
	}
	sort.Strings(supported)

	return jsonResult(map[string]any{
		"status":    "success",
		"platforms": platforms,
		"summary": map[string]any{
			"total_platforms":         len(accounts),
			"active_platforms":        active,
			"inactive_platforms":      len(accounts) - active,
			"platforms_by_type":       byType,
			"supported_content_types": supported,
		},
	})
}
