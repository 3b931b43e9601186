// Package server exposes the scheduling engine as MCP tools on stdio.
//
// Each tool handler resolves credentials, runs local validation, admits
// the upstream calls it is about to issue against the rate budget, and
// renders a JSON payload with a stable status discriminator. Handlers
// never panic across the tool boundary and never surface raw errors
// without a status and a next action.
package server

import (
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/plexura/syndic/budget"
	"github.com/plexura/syndic/config"
	"github.com/plexura/syndic/content"
	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/plan"
	"github.com/plexura/syndic/plan/optimal"
	"github.com/plexura/syndic/plan/timing"
	"github.com/plexura/syndic/publer"
	"github.com/plexura/syndic/track"
	"github.com/plexura/syndic/version"
)

// Server wires the engine components behind the MCP tool surface.
type Server struct {
	cfg       *config.Config
	governor  *budget.Governor
	client    *publer.Client
	registry  *plan.Registry
	planner   *plan.Planner
	selector  *optimal.Selector
	extractor *content.Extractor
	submitter *track.Submitter
	monitor   *track.Monitor
	logger    *zap.SugaredLogger
	mcp       *mcpserver.MCPServer
	now       func() time.Time
}

// New creates the MCP server with all tools registered. A nil logger is
// replaced with a no-op logger.
func New(cfg *config.Config, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	governor := budget.NewPublerGovernor()
	clientCfg := publer.Config{
		BaseURL:  cfg.GetPublerBaseURL(),
		Timeout:  cfg.PublerTimeout(),
		Governor: governor,
		Logger:   logger,
	}
	if cfg.Rate.MaxCalls > 0 {
		governor = budget.NewGovernor(cfg.Rate.MaxCalls, cfg.RateWindow())
		clientCfg.Governor = governor
		// Pace requests to the configured budget rather than the stock
		// Publer quota.
		clientCfg.PaceInterval = cfg.RateWindow() / time.Duration(cfg.Rate.MaxCalls)
	}
	client := publer.NewClient(clientCfg)
	registry := plan.DefaultRegistry()
	distributor := timing.NewDistributor()
	distributor.SetJitterWindow(cfg.JitterWindow())

	s := &Server{
		cfg:      cfg,
		governor: governor,
		client:   client,
		registry: registry,
		planner: plan.NewPlanner(plan.PlannerConfig{
			Registry:     registry,
			Distributor:  distributor,
			MaxBulkItems: cfg.Plan.MaxBulkItems,
		}),
		selector: optimal.NewSelector(optimal.Config{
			MinConfidence:   cfg.Optimal.MinConfidence,
			AgreementWindow: cfg.AgreementWindow(),
		}),
		extractor: content.NewExtractor(content.Options{
			Timeout:     cfg.FetchTimeout(),
			MaxKeywords: cfg.Content.MaxKeywords,
		}, logger),
		submitter: track.NewSubmitter(client, logger),
		monitor:   track.NewMonitor(),
		logger:    logger,
		now:       time.Now,
	}

	s.mcp = mcpserver.NewMCPServer(
		"syndic",
		version.Get().Version,
		mcpserver.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// SetHTTPClient replaces the outbound HTTP clients for both the API
// client and the blog extractor. Testing hook for local mock servers.
func (s *Server) SetHTTPClient(client *http.Client) {
	s.client.SetHTTPClient(client)
	s.extractor.SetHTTPClient(client)
}

// Serve runs the MCP server on stdio until the transport closes.
func (s *Server) Serve() error {
	s.logger.Infow("Starting syndic MCP server",
		"version", version.Get().Version,
		"workspace", s.cfg.Publer.DefaultWorkspace != "")
	return mcpserver.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	statusTool := mcp.NewTool("check_account_status",
		mcp.WithDescription("Verify Publer API connectivity and report the authenticated user, account type, and available workspaces."),
	)
	s.mcp.AddTool(statusTool, s.handleAccountStatus)

	platformsTool := mcp.NewTool("list_connected_platforms",
		mcp.WithDescription("List the social media accounts connected to a workspace, with posting capabilities and profile details."),
		mcp.WithString("workspace_id",
			mcp.Description("Workspace to inspect. Defaults to the configured workspace."),
		),
	)
	s.mcp.AddTool(platformsTool, s.handleListPlatforms)

	blogTool := mcp.NewTool("blog_to_platform_scheduler",
		mcp.WithDescription("Promote a blog post across social platforms. Fetches the article, extracts metadata, shapes content per platform, and submits one scheduling job."),
		mcp.WithString("blog_url",
			mcp.Required(),
			mcp.Description("Full URL of the blog post to promote."),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message text to accompany the link."),
		),
		mcp.WithArray("target_platforms",
			mcp.Description("Account ids to post to. Defaults to every active twitter account."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("schedule_time",
			mcp.Description("ISO-8601 time to publish at. Omit to publish immediately."),
		),
		mcp.WithBoolean("include_preview",
			mcp.DefaultBool(true),
			mcp.Description("Attach the article's preview image when extraction finds one."),
		),
		mcp.WithString("workspace_id",
			mcp.Description("Workspace to schedule in. Defaults to the configured workspace."),
		),
	)
	s.mcp.AddTool(blogTool, s.handleBlogScheduler)

	multiTool := mcp.NewTool("multi_platform_scheduler",
		mcp.WithDescription("Schedule one post across multiple platforms, with per-platform content overrides and media filtering."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Post text shared across all platforms unless overridden."),
		),
		mcp.WithArray("target_platforms",
			mcp.Required(),
			mcp.Description("Account ids to post to."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithObject("customizations",
			mcp.Description("Per-platform content overrides keyed by platform name, e.g. {\"twitter\": \"short version\"}."),
		),
		mcp.WithArray("media_urls",
			mcp.Description("Image or video URLs. Dropped for platforms that cannot carry media."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("schedule_time",
			mcp.Description("ISO-8601 time to publish at. Omit to publish immediately."),
		),
		mcp.WithString("workspace_id",
			mcp.Description("Workspace to schedule in. Defaults to the configured workspace."),
		),
	)
	s.mcp.AddTool(multiTool, s.handleMultiScheduler)

	bulkTool := mcp.NewTool("bulk_content_series_scheduler",
		mcp.WithDescription("Schedule a series of posts spread over a daily, weekly, or custom spacing pattern. Each content item becomes one scheduling job."),
		mcp.WithArray("content_series",
			mcp.Required(),
			mcp.Description("Content items in posting order. Each needs a content field; media_urls and schedule_time (custom pattern) are optional."),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithArray("target_platforms",
			mcp.Required(),
			mcp.Description("Account ids every item is posted to."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Spacing pattern for the series."),
			mcp.Enum("immediate", "daily", "weekly", "custom"),
		),
		mcp.WithString("start_date",
			mcp.Description("ISO-8601 anchor for the first item. Required for daily, weekly, and custom patterns."),
		),
		mcp.WithNumber("spacing",
			mcp.DefaultNumber(24),
			mcp.Description("Hours between items for the custom pattern, 1 to 168."),
		),
		mcp.WithBoolean("jitter",
			mcp.DefaultBool(false),
			mcp.Description("Shift each anchor by up to 30 minutes for a less mechanical cadence."),
		),
		mcp.WithString("workspace_id",
			mcp.Description("Workspace to schedule in. Defaults to the configured workspace."),
		),
	)
	s.mcp.AddTool(bulkTool, s.handleBulkScheduler)

	optimalTool := mcp.NewTool("optimal_time_scheduler",
		mcp.WithDescription("Schedule a post at the best time selected from per-account engagement analytics, with a fallback when no recommendation is usable."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Post text shared across all platforms."),
		),
		mcp.WithArray("target_platforms",
			mcp.Required(),
			mcp.Description("Account ids to post to."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("goal",
			mcp.Description("What the timing should optimize for."),
			mcp.Enum("engagement", "reach", "clicks", "general"),
			mcp.DefaultString("engagement"),
		),
		mcp.WithString("timezone",
			mcp.Description("Timezone for reporting the selected time. Accepts IANA names, abbreviations, or place names."),
			mcp.DefaultString("UTC"),
		),
		mcp.WithString("date_range",
			mcp.Description("How far ahead the selected time may land."),
			mcp.Enum("next_24h", "next_48h", "next_7_days", "next_14_days"),
			mcp.DefaultString("next_7_days"),
		),
		mcp.WithString("fallback_time",
			mcp.Description("ISO-8601 time used when no recommendation clears the confidence floor. Omit to fall back to immediate publishing."),
		),
		mcp.WithString("workspace_id",
			mcp.Description("Workspace to schedule in. Defaults to the configured workspace."),
		),
	)
	s.mcp.AddTool(optimalTool, s.handleOptimalScheduler)

	jobTool := mcp.NewTool("check_job_status",
		mcp.WithDescription("Check the progress and per-post results of a scheduling job."),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job id returned by a scheduling tool."),
		),
		mcp.WithString("workspace_id",
			mcp.Description("Workspace the job was created in. Defaults to the configured workspace."),
		),
	)
	s.mcp.AddTool(jobTool, s.handleJobStatus)

	monitorTool := mcp.NewTool("monitor_recent_jobs",
		mcp.WithDescription("Review recent scheduling activity in a workspace: per-job status, summary counts, success rate, and items needing attention."),
		mcp.WithNumber("limit",
			mcp.DefaultNumber(10),
			mcp.Description("Maximum jobs to return, 1 to 50."),
		),
		mcp.WithString("status_filter",
			mcp.DefaultString("all"),
			mcp.Description("Keep only jobs in this state."),
			mcp.Enum("all", "pending", "scheduled", "in_progress", "completed", "failed"),
		),
		mcp.WithString("time_range",
			mcp.DefaultString("24h"),
			mcp.Description("How far back to look."),
			mcp.Enum("1h", "6h", "24h", "7d", "30d"),
		),
		mcp.WithString("workspace_id",
			mcp.Description("Workspace to monitor. Defaults to the configured workspace."),
		),
	)
	s.mcp.AddTool(monitorTool, s.handleMonitorJobs)
}

// credentials resolves the API key and workspace for one call. A
// workspace_id argument overrides the configured default.
func (s *Server) credentials(request mcp.CallToolRequest) publer.Credentials {
	return publer.Credentials{
		APIKey:      s.cfg.Publer.APIKey,
		WorkspaceID: request.GetString("workspace_id", s.cfg.Publer.DefaultWorkspace),
	}
}

// preflight rejects calls with unusable credentials before any budget
// is consumed or request issued.
func (s *Server) preflight(creds publer.Credentials, needWorkspace bool) error {
	if !creds.HasKey() {
		return errors.WithHint(
			errors.NewAuthenticationError("Publer API key not configured"),
			"Set SYNDIC_API_KEY or publer.api_key in the configuration")
	}
	if needWorkspace && !creds.HasWorkspace() {
		return errors.WithHint(
			errors.Wrap(errors.ErrWorkspaceRequired, "no workspace id provided"),
			"Pass a workspace_id argument or set SYNDIC_WORKSPACE_ID")
	}
	return nil
}
