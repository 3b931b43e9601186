package plan

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/plan/optimal"
	"github.com/plexura/syndic/plan/timing"
	"github.com/plexura/syndic/publer"
)

// DefaultMaxBulkItems caps the size of one series request.
const DefaultMaxBulkItems = 50

// PlannerConfig holds the planner's collaborators. Zero fields fall
// back to defaults.
type PlannerConfig struct {
	Registry     *Registry
	Distributor  *timing.Distributor
	MaxBulkItems int
}

// Planner expands requests into scheduling plans.
type Planner struct {
	registry    *Registry
	distributor *timing.Distributor
	maxItems    int
	now         func() time.Time
}

// NewPlanner returns a planner, applying defaults for zero config
// fields.
func NewPlanner(cfg PlannerConfig) *Planner {
	p := &Planner{
		registry:    cfg.Registry,
		distributor: cfg.Distributor,
		maxItems:    cfg.MaxBulkItems,
		now:         time.Now,
	}
	if p.registry == nil {
		p.registry = DefaultRegistry()
	}
	if p.distributor == nil {
		p.distributor = timing.NewDistributor()
	}
	if p.maxItems == 0 {
		p.maxItems = DefaultMaxBulkItems
	}
	return p
}

// PromotionRequest promotes one link across target accounts.
type PromotionRequest struct {
	BlogURL        string
	Message        string
	TargetAccounts []string // empty targets every active twitter account
	ScheduleTime   string   // ISO-8601, empty publishes immediately
	IncludePreview bool
	Blog           BlogMeta
}

// BroadcastRequest posts one message, optionally customized per
// platform, across target accounts.
type BroadcastRequest struct {
	Content        string
	TargetAccounts []string
	Customizations map[string]string // platform name to replacement content
	MediaURLs      []string
	ScheduleTime   string
}

// SeriesItem is one entry of a bulk series.
type SeriesItem struct {
	Content      string
	MediaURLs    []string
	ScheduleTime string // honored for the custom pattern only
}

// SeriesRequest spreads a series of items over a spacing pattern.
type SeriesRequest struct {
	Items          []SeriesItem
	TargetAccounts []string
	Pattern        timing.Pattern
	StartDate      string
	SpacingHours   int
	Jitter         bool
}

// OptimalRequest posts one message at an analytics-selected time.
type OptimalRequest struct {
	Content        string
	TargetAccounts []string
	Goal           optimal.Goal
	Timezone       string
	DateRange      optimal.DateRange
	FallbackTime   string // ISO-8601, applied when selection fails
}

// PlanPromotion expands a blog promotion. When the request names no
// targets the plan covers every active twitter account.
func (p *Planner) PlanPromotion(req PromotionRequest, accounts []publer.Account) (*SchedulingPlan, error) {
	if !isValidURL(req.BlogURL) {
		return nil, errors.WithHint(
			errors.NewValidationError("invalid blog_url: %q is not an http or https URL", req.BlogURL),
			"Provide the full blog post URL including the scheme")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.WithHint(
			errors.NewValidationError("message cannot be empty"),
			"Provide the message text for the post")
	}
	targets, err := p.promotionTargets(req.TargetAccounts, accounts)
	if err != nil {
		return nil, err
	}
	at, err := parseOptionalTime("schedule_time", req.ScheduleTime)
	if err != nil {
		return nil, err
	}

	plan := &SchedulingPlan{ID: newPlanID(), Kind: KindPromotion, CreatedAt: p.now()}
	for _, acc := range targets {
		content, err := p.registry.ShapeContent(acc.Type, ShapeInput{
			Message:  req.Message,
			Link:     req.BlogURL,
			Title:    req.Blog.Title,
			Keywords: req.Blog.Keywords,
		})
		if err != nil {
			return nil, err
		}
		var media []string
		if req.IncludePreview && req.Blog.PreviewImage != "" {
			media = p.registry.FilterMedia(acc.Type, []string{req.Blog.PreviewImage})
		}
		plan.Instructions = append(plan.Instructions, PublishInstruction{
			PlanID:      plan.ID,
			AccountID:   string(acc.ID),
			Platform:    acc.Type,
			AccountName: acc.Name,
			Content:     content,
			MediaURLs:   media,
			Link:        req.BlogURL,
			ScheduledAt: at,
		})
	}
	return plan, nil
}

// PlanBroadcast expands a multi-platform post. A customization keyed
// by a platform the request does not target is ignored.
func (p *Planner) PlanBroadcast(req BroadcastRequest, accounts []publer.Account) (*SchedulingPlan, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, errors.WithHint(
			errors.NewValidationError("content cannot be empty"),
			"Provide content text for the post")
	}
	targets, err := resolveTargets(req.TargetAccounts, accounts)
	if err != nil {
		return nil, err
	}
	if err := validateMediaURLs("", req.MediaURLs); err != nil {
		return nil, err
	}
	at, err := parseOptionalTime("schedule_time", req.ScheduleTime)
	if err != nil {
		return nil, err
	}

	custom := make(map[string]string, len(req.Customizations))
	for platform, content := range req.Customizations {
		custom[normalizePlatform(platform)] = content
	}

	plan := &SchedulingPlan{ID: newPlanID(), Kind: KindBroadcast, CreatedAt: p.now()}
	for _, acc := range targets {
		message := req.Content
		if override, ok := custom[normalizePlatform(acc.Type)]; ok && strings.TrimSpace(override) != "" {
			message = override
		}
		content, err := p.registry.ShapeContent(acc.Type, ShapeInput{Message: message})
		if err != nil {
			return nil, err
		}
		plan.Instructions = append(plan.Instructions, PublishInstruction{
			PlanID:      plan.ID,
			AccountID:   string(acc.ID),
			Platform:    acc.Type,
			AccountName: acc.Name,
			Content:     content,
			MediaURLs:   p.registry.FilterMedia(acc.Type, req.MediaURLs),
			ScheduledAt: at,
		})
	}
	return plan, nil
}

// PlanSeries expands a bulk series across its timing pattern. For the
// custom pattern a per-item schedule time overrides the computed
// anchor.
func (p *Planner) PlanSeries(req SeriesRequest, accounts []publer.Account) (*SchedulingPlan, error) {
	if len(req.Items) == 0 {
		return nil, errors.WithHint(
			errors.NewValidationError("content series cannot be empty"),
			"Provide at least one content item")
	}
	if len(req.Items) > p.maxItems {
		return nil, errors.WithHint(
			errors.NewValidationError("maximum %d posts per batch (provided: %d)", p.maxItems, len(req.Items)),
			"Split into smaller batches for better performance")
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.Content) == "" {
			return nil, errors.WithHint(
				errors.NewValidationError("content item %d has empty content", i+1),
				"Provide non-empty content for all posts")
		}
	}
	targets, err := resolveTargets(req.TargetAccounts, accounts)
	if err != nil {
		return nil, err
	}

	spacing := time.Duration(req.SpacingHours) * time.Hour
	var anchors []time.Time
	switch {
	case req.Pattern == timing.PatternImmediate:
	case req.Pattern.Scheduled():
		if strings.TrimSpace(req.StartDate) == "" {
			return nil, errors.WithHint(
				errors.NewValidationError("start date is required for the %q pattern", req.Pattern),
				"Provide start_date in ISO format, e.g. 2026-01-15T10:00:00Z")
		}
		start, err := parseTime("start_date", req.StartDate)
		if err != nil {
			return nil, err
		}
		anchors, err = p.distributor.Distribute(len(req.Items), req.Pattern, start, spacing, req.Jitter)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewValidationError("invalid schedule pattern %q: must be one of immediate, daily, weekly, custom", req.Pattern)
	}

	plan := &SchedulingPlan{
		ID:        newPlanID(),
		Kind:      KindSeries,
		Pattern:   req.Pattern,
		Spacing:   spacing,
		CreatedAt: p.now(),
	}
	for i, item := range req.Items {
		if err := validateMediaURLs(fmt.Sprintf(" in content item %d", i+1), item.MediaURLs); err != nil {
			return nil, err
		}
		var at *time.Time
		if anchors != nil {
			anchor := anchors[i]
			if req.Pattern == timing.PatternCustom && strings.TrimSpace(item.ScheduleTime) != "" {
				anchor, err = parseTime(fmt.Sprintf("schedule_time in content item %d", i+1), item.ScheduleTime)
				if err != nil {
					return nil, err
				}
			}
			at = &anchor
		}
		for _, acc := range targets {
			content, err := p.registry.ShapeContent(acc.Type, ShapeInput{Message: item.Content})
			if err != nil {
				return nil, err
			}
			plan.Instructions = append(plan.Instructions, PublishInstruction{
				PlanID:      plan.ID,
				ItemIndex:   i,
				AccountID:   string(acc.ID),
				Platform:    acc.Type,
				AccountName: acc.Name,
				Content:     content,
				MediaURLs:   p.registry.FilterMedia(acc.Type, item.MediaURLs),
				ScheduledAt: at,
			})
		}
	}
	return plan, nil
}

// PlanOptimal expands a post around a selection decision. A nil or
// empty decision falls back to the request's fallback time, or to
// immediate publishing when none was given.
func (p *Planner) PlanOptimal(req OptimalRequest, accounts []publer.Account, decision *optimal.Decision) (*SchedulingPlan, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, errors.WithHint(
			errors.NewValidationError("content cannot be empty"),
			"Provide content text for the post")
	}
	var fallback *time.Time
	if strings.TrimSpace(req.FallbackTime) != "" {
		t, err := parseTime("fallback_time", req.FallbackTime)
		if err != nil {
			return nil, err
		}
		if !t.After(p.now()) {
			return nil, errors.WithHint(
				errors.NewValidationError("fallback time must be in the future"),
				"Provide a future datetime for fallback_time")
		}
		fallback = &t
	}
	targets, err := resolveTargets(req.TargetAccounts, accounts)
	if err != nil {
		return nil, err
	}

	var at *time.Time
	switch {
	case decision != nil && !decision.SelectedTime.IsZero():
		t := decision.SelectedTime
		at = &t
	case fallback != nil:
		at = fallback
	}

	plan := &SchedulingPlan{
		ID:        newPlanID(),
		Kind:      KindOptimal,
		Goal:      req.Goal,
		Timezone:  req.Timezone,
		CreatedAt: p.now(),
	}
	for _, acc := range targets {
		content, err := p.registry.ShapeContent(acc.Type, ShapeInput{Message: req.Content})
		if err != nil {
			return nil, err
		}
		plan.Instructions = append(plan.Instructions, PublishInstruction{
			PlanID:      plan.ID,
			AccountID:   string(acc.ID),
			Platform:    acc.Type,
			AccountName: acc.Name,
			Content:     content,
			ScheduledAt: at,
		})
	}
	return plan, nil
}

// promotionTargets defaults an empty target list to the workspace's
// active twitter accounts.
func (p *Planner) promotionTargets(ids []string, accounts []publer.Account) ([]publer.Account, error) {
	if len(ids) > 0 {
		return resolveTargets(ids, accounts)
	}
	var twitter []publer.Account
	for _, acc := range accounts {
		if acc.Active() && normalizePlatform(acc.Type) == "twitter" {
			twitter = append(twitter, acc)
		}
	}
	if len(twitter) == 0 {
		return nil, errors.WithHint(
			errors.NewPlatformInvalidError("no active twitter accounts are connected to the workspace"),
			"Pass target_platforms explicitly or connect a twitter account")
	}
	return twitter, nil
}

// ResolveTargets maps requested account ids to the matching active
// accounts. Callers that need the resolved accounts before planning
// (reach estimates, selector targets) share the planner's validation.
func ResolveTargets(ids []string, accounts []publer.Account) ([]publer.Account, error) {
	return resolveTargets(ids, accounts)
}

// resolveTargets maps requested account ids to active accounts. Every
// id must belong to an active account.
func resolveTargets(ids []string, accounts []publer.Account) ([]publer.Account, error) {
	if len(ids) == 0 {
		return nil, errors.WithHint(
			errors.NewValidationError("at least one target platform is required"),
			"Specify platform account ids to post to")
	}
	active := make(map[string]publer.Account, len(accounts))
	for _, acc := range accounts {
		if acc.Active() {
			active[string(acc.ID)] = acc
		}
	}
	var (
		targets []publer.Account
		invalid []string
	)
	for _, id := range ids {
		acc, ok := active[strings.TrimSpace(id)]
		if !ok {
			invalid = append(invalid, id)
			continue
		}
		targets = append(targets, acc)
	}
	if len(invalid) > 0 {
		err := errors.NewPlatformInvalidError("invalid or disconnected platform ids: %s", strings.Join(invalid, ", "))
		return nil, errors.WithHint(errors.WithDetail(err, describeActive(active)),
			"Use list_connected_platforms to see available accounts")
	}
	return targets, nil
}

func describeActive(active map[string]publer.Account) string {
	if len(active) == 0 {
		return "No active accounts are connected"
	}
	ids := make([]string, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		acc := active[id]
		parts = append(parts, fmt.Sprintf("%s (%s, %s)", id, acc.Type, acc.Name))
	}
	return "Active accounts: " + strings.Join(parts, "; ")
}

// EstimatedReach renders the combined follower count of the accounts.
func EstimatedReach(accounts []publer.Account) string {
	total := 0
	for _, acc := range accounts {
		total += acc.FollowerCount
	}
	switch {
	case total == 0:
		return "Unable to calculate reach - follower data not available"
	case total < 1000:
		return fmt.Sprintf("%d followers across %d accounts", total, len(accounts))
	case total < 1000000:
		return fmt.Sprintf("%.1fK followers across %d accounts", float64(total)/1000, len(accounts))
	default:
		return fmt.Sprintf("%.1fM followers across %d accounts", float64(total)/1000000, len(accounts))
	}
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

func parseTime(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.WithHint(
		errors.NewValidationError("invalid %s: %q is not an ISO-8601 timestamp", field, value),
		"Use a format like 2026-01-15T10:00:00Z")
}

func parseOptionalTime(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseTime(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validateMediaURLs(context string, urls []string) error {
	var invalid []string
	for _, raw := range urls {
		if !isValidURL(raw) {
			invalid = append(invalid, raw)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	return errors.WithHint(
		errors.NewValidationError("invalid media URLs%s: %s", context, strings.Join(invalid, ", ")),
		"Provide http or https URLs for media")
}
