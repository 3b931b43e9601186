// Package publer implements the client for the Publer REST API.
//
// The client is a thin, credential-free transport: callers pass a
// Credentials value on every call, so one shared client can serve many
// workspaces concurrently. Requests are paced with a token bucket sized
// to the upstream quota, and X-RateLimit response headers are fed back
// into the shared budget governor so the local window view never drifts
// looser than the upstream's.
package publer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/plexura/syndic/budget"
	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/internal/httpclient"
)

const (
	// DefaultBaseURL is the production Publer API root.
	DefaultBaseURL = "https://app.publer.com/api/v1"

	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3

	// defaultRetryAfter is the backoff reported for 429 responses that
	// carry no usable Retry-After or X-RateLimit-Reset header.
	defaultRetryAfter = 30 * time.Second

	// paceBurst bounds how many requests may leave back to back before
	// the limiter spreads the rest across the quota window.
	paceBurst = 5
)

// Config holds client configuration.
type Config struct {
	// BaseURL overrides the production API root.
	BaseURL string

	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration

	// MaxRetries is the attempt count for idempotent GET requests that
	// fail with transient network errors. Defaults to 3. Submissions
	// are never retried.
	MaxRetries int

	// PaceInterval sets the minimum average gap between requests. Zero
	// derives the gap from the upstream quota (100 calls per 2 min).
	PaceInterval time.Duration

	// Governor, when set, receives remote quota corrections read from
	// X-RateLimit response headers. Admission itself happens at the
	// call site, weighted per operation, not inside the client.
	Governor *budget.Governor

	// Logger for request flow. Defaults to a nop logger.
	Logger *zap.SugaredLogger
}

// Client talks to the Publer REST API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *httpclient.SaferClient
	limiter    *rate.Limiter
	governor   *budget.Governor
	logger     *zap.SugaredLogger
}

// NewClient creates a Publer API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	pace := cfg.PaceInterval
	if pace <= 0 {
		pace = budget.PublerWindow / budget.PublerMaxCalls
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		httpClient: httpclient.NewSaferClient(cfg.Timeout),
		limiter:    rate.NewLimiter(rate.Every(pace), paceBurst),
		governor:   cfg.Governor,
		logger:     log,
	}
}

// SetHTTPClient replaces the underlying HTTP client. This bypasses SSRF
// protection and exists for testing against local mock servers only.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.WrapClient(client)
}

// Me returns the authenticated user. User-scoped: the workspace header
// is never sent.
func (c *Client) Me(ctx context.Context, creds Credentials) (*User, error) {
	var user User
	if err := c.get(ctx, userScoped(creds), "users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Workspaces lists the workspaces the API key can operate in.
func (c *Client) Workspaces(ctx context.Context, creds Credentials) ([]Workspace, error) {
	var envelope dataEnvelope[[]Workspace]
	if err := c.get(ctx, userScoped(creds), "workspaces", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// Accounts lists the social accounts connected to the workspace.
func (c *Client) Accounts(ctx context.Context, creds Credentials) ([]Account, error) {
	if err := requireWorkspace(creds, "accounts"); err != nil {
		return nil, err
	}
	var envelope dataEnvelope[[]Account]
	if err := c.get(ctx, creds, "accounts", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// Posts reads the workspace posts feed, optionally filtered.
func (c *Client) Posts(ctx context.Context, creds Credentials, filter PostFilter) ([]Post, error) {
	if err := requireWorkspace(creds, "posts"); err != nil {
		return nil, err
	}
	var envelope dataEnvelope[[]Post]
	if err := c.get(ctx, creds, "posts", filter.query(), &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// SchedulePosts submits a batch of posts for asynchronous publishing.
// The upstream usually acknowledges with a job id; when it completes the
// request synchronously instead, the receipt carries a "sync_<unix>"
// pseudo handle with Immediate set.
//
// Submissions are issued exactly once. A timeout yields an
// ErrUnknownOutcome: the upstream may have accepted the plan, so callers
// must check job status rather than resubmit.
func (c *Client) SchedulePosts(ctx context.Context, creds Credentials, payload SchedulePayload) (*Receipt, error) {
	if err := requireWorkspace(creds, "posts/schedule"); err != nil {
		return nil, err
	}
	if len(payload.Posts) == 0 {
		return nil, errors.NewValidationError("schedule payload contains no posts")
	}

	var resp scheduleResponse
	if err := c.do(ctx, creds, http.MethodPost, "posts/schedule", nil, payload, &resp); err != nil {
		if isTimeoutErr(err) {
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrUnknownOutcome, "submission timed out after %s", c.timeout),
				"Check job status before resubmitting; the upstream may have accepted the plan")
		}
		if errors.IsAuthentication(err) || errors.IsRateLimited(err) || errors.IsValidation(err) {
			return nil, err
		}
		return nil, errors.Mark(err, errors.ErrSubmission)
	}

	receipt := &Receipt{SubmittedAt: time.Now().UTC()}
	switch {
	case resp.JobID != "":
		receipt.JobID = resp.JobID
	case resp.Status == "success" || len(resp.Posts) > 0:
		// Synchronous completion, nothing to poll.
		receipt.JobID = "sync_" + strconv.FormatInt(time.Now().Unix(), 10)
		receipt.Immediate = true
	default:
		return nil, errors.NewSubmissionError("upstream acknowledged without a job id or posts")
	}

	c.logger.Infow("Submitted schedule request",
		"job_id", receipt.JobID,
		"posts", len(payload.Posts),
		"immediate", receipt.Immediate)
	return receipt, nil
}

// JobStatus queries the current state of a publishing job.
func (c *Client) JobStatus(ctx context.Context, creds Credentials, jobID string) (*JobStatus, error) {
	if err := requireWorkspace(creds, "job_status"); err != nil {
		return nil, err
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.NewValidationError("job id cannot be empty")
	}

	var status JobStatus
	if err := c.get(ctx, creds, "job_status/"+url.PathEscape(jobID), nil, &status); err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.WithHint(
				errors.Wrapf(err, "job %s", jobID),
				"Verify the job id and that it was created in this workspace")
		}
		return nil, err
	}
	return &status, nil
}

// MemberAnalytics reads per-account posting-time recommendations from
// the analytics surface, keyed by account id.
func (c *Client) MemberAnalytics(ctx context.Context, creds Credentials) (map[string]MemberInsights, error) {
	if err := requireWorkspace(creds, "analytics/members"); err != nil {
		return nil, err
	}
	var envelope dataEnvelope[map[string]MemberInsights]
	if err := c.get(ctx, creds, "analytics/members", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// get performs an idempotent GET with retries on transient network
// failures. HTTP-level errors (auth, rate limit, not found) surface
// immediately without retry.
func (c *Client) get(ctx context.Context, creds Credentials, path string, query url.Values, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := c.do(ctx, creds, http.MethodGet, path, query, nil, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == c.maxRetries || !isRetryableError(err) {
			return err
		}

		delay := time.Duration(attempt) * time.Second
		c.logger.Warnw("Publer request failed, retrying",
			"path", path,
			"attempt", attempt,
			"retry_in", delay,
			"error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "request canceled during retry backoff")
		}
	}
	return lastErr
}

// do performs one HTTP round trip: build, pace, send, map the status
// code, decode.
func (c *Client) do(ctx context.Context, creds Credentials, method, path string, query url.Values, body, out any) error {
	if !creds.HasKey() {
		return errors.WithHint(
			errors.NewAuthenticationError("Publer API key not configured"),
			"Set SYNDIC_API_KEY or publer.api_key in the configuration")
	}

	endpoint := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer-API "+creds.APIKey)
	if creds.HasWorkspace() {
		req.Header.Set("Publer-Workspace-Id", creds.WorkspaceID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "request canceled while pacing")
	}

	c.logger.Debugw("Publer request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	c.syncRateHeaders(resp.Header)

	if resp.StatusCode >= 400 {
		return c.errorFromStatus(resp.StatusCode, raw, resp.Header)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", path)
	}
	return nil
}

// errorFromStatus maps an HTTP error response onto the error taxonomy.
func (c *Client) errorFromStatus(status int, body []byte, header http.Header) error {
	msg := apiErrorMessage(body)
	switch {
	case status == http.StatusUnauthorized:
		return errors.WithHint(
			errors.NewAuthenticationError("invalid API key: %s", msg),
			"Check the API key against the Publer dashboard")
	case status == http.StatusForbidden:
		return errors.WithHint(
			errors.NewAuthenticationError("access forbidden: %s", msg),
			"The API key may lack access to this workspace")
	case status == http.StatusNotFound:
		return errors.Wrapf(errors.ErrNotFound, "%s", msg)
	case status == http.StatusTooManyRequests:
		return errors.NewRateLimitError(retryAfterFromHeaders(header))
	case status >= 500:
		return errors.WithHint(
			errors.NewUpstreamError("Publer API error (HTTP %d): %s", status, msg),
			"Retry later; the upstream service is degraded")
	default:
		return errors.Newf("Publer API request failed with status %d: %s", status, msg)
	}
}

// syncRateHeaders feeds the quota view reported by the upstream into the
// governor. The governor only ever tightens from this.
func (c *Client) syncRateHeaders(h http.Header) {
	if c.governor == nil {
		return
	}
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	reset := time.Now().Add(budget.PublerWindow)
	if ts, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil && ts > 0 {
		reset = time.Unix(ts, 0)
	}
	c.governor.SyncRemote(remaining, reset)
}

// retryAfterFromHeaders extracts the suggested backoff from a 429
// response, falling back to a fixed default.
func retryAfterFromHeaders(h http.Header) time.Duration {
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if ts, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil && ts > 0 {
		if until := time.Until(time.Unix(ts, 0)); until > 0 {
			return until
		}
	}
	return defaultRetryAfter
}

// apiErrorMessage pulls a human-readable message out of an error body.
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "no error detail provided"
	}
	if len(trimmed) > 200 {
		trimmed = trimmed[:200] + "..."
	}
	return trimmed
}

// query encodes the filter as posts feed query parameters.
func (f PostFilter) query() url.Values {
	q := url.Values{}
	if f.State != "" {
		q.Set("state", f.State)
	}
	if !f.Since.IsZero() {
		q.Set("since", f.Since.UTC().Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// userScoped strips the workspace id for endpoints that must not carry
// the workspace header.
func userScoped(c Credentials) Credentials {
	c.WorkspaceID = ""
	return c
}

// requireWorkspace guards workspace-scoped operations before any
// request is built or budget consumed.
func requireWorkspace(creds Credentials, op string) error {
	if creds.HasWorkspace() {
		return nil
	}
	return errors.WithHint(
		errors.Wrapf(errors.ErrWorkspaceRequired, "%s is workspace-scoped", op),
		"Pass a workspace_id argument or set SYNDIC_WORKSPACE_ID")
}

// isTimeoutErr reports whether the error chain indicates a request
// timeout, where the submission outcome is unknown.
func isTimeoutErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isRetryableError determines if an error is worth a retry. Only
// transient network conditions qualify; HTTP-level errors never do.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.IsAny(err, errors.ErrRateLimited, errors.ErrAuthentication, errors.ErrNotFound, errors.ErrValidation) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		var errno syscall.Errno
		if errors.As(opErr.Err, &errno) {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				return true
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	networkErrors := []string{
		"connection reset by peer",
		"connection refused",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"i/o timeout",
	}
	for _, netErrStr := range networkErrors {
		if strings.Contains(errStr, netErrStr) {
			return true
		}
	}
	return false
}
