package publer

import (
	"encoding/json"
	"strings"
	"time"
)

// Credentials carries the authentication material for one call. Every
// client method takes an explicit Credentials value so concurrent
// callers with different keys or workspaces never share ambient state.
type Credentials struct {
	// APIKey authenticates against the Publer API using the
	// "Bearer-API" authorization scheme.
	APIKey string

	// WorkspaceID scopes workspace-level operations. Not required for
	// user-scoped endpoints (users/me, workspaces).
	WorkspaceID string
}

// HasKey reports whether an API key is present.
func (c Credentials) HasKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// HasWorkspace reports whether a workspace id is present.
func (c Credentials) HasWorkspace() bool {
	return strings.TrimSpace(c.WorkspaceID) != ""
}

// ID is a Publer resource identifier. The API serves ids as JSON strings
// on some endpoints and numbers on others, so ID decodes both.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// User is the authenticated account returned by GET users/me.
type User struct {
	ID          ID     `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
	Picture     string `json:"picture,omitempty"`
}

// Workspace is one tenant boundary the API key can operate in.
type Workspace struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
	Plan string `json:"plan,omitempty"`
}

// Account is one connected social account within a workspace.
type Account struct {
	ID             ID     `json:"id"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	FollowerCount  int    `json:"follower_count,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}

// Active reports whether the account can currently receive posts.
func (a Account) Active() bool { return a.Status == "active" }

// PostAccount identifies one target account on a feed post.
type PostAccount struct {
	ID       ID     `json:"id,omitempty"`
	Platform string `json:"platform"`
	Name     string `json:"name,omitempty"`
}

// Post is one entry in the workspace posts feed. Timestamps are kept in
// the upstream's ISO-8601 string form and parsed only where arithmetic
// is needed.
type Post struct {
	ID            ID            `json:"id"`
	Status        string        `json:"status"`
	Content       string        `json:"content,omitempty"`
	CreatedAt     string        `json:"created_at,omitempty"`
	ScheduledTime string        `json:"scheduled_time,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	MediaURLs     []string      `json:"media_urls,omitempty"`
	Accounts      []PostAccount `json:"accounts,omitempty"`
}

// PostFilter narrows the workspace posts feed. The zero value applies no
// filtering.
type PostFilter struct {
	// State filters by upstream post state, e.g. "scheduled".
	State string
	// Since keeps only posts created at or after this instant.
	Since time.Time
	// Limit caps the number of posts returned. Zero uses the upstream
	// default page size.
	Limit int
}

// PostSubmission is one post inside a posts/schedule payload.
type PostSubmission struct {
	Content       string   `json:"content"`
	Accounts      []string `json:"accounts"`
	MediaURLs     []string `json:"media_urls,omitempty"`
	ScheduledTime string   `json:"scheduled_time,omitempty"`
}

// SchedulePayload is the body of POST posts/schedule.
type SchedulePayload struct {
	Posts []PostSubmission `json:"posts"`
}

// Receipt records the upstream's acknowledgement of one schedule
// submission.
type Receipt struct {
	// JobID tracks the asynchronous publishing job. When the upstream
	// completed the request synchronously the id is a pseudo handle of
	// the form "sync_<unix>" and Immediate is true.
	JobID string

	// Immediate marks a synchronous completion, meaning there is no
	// upstream job to poll.
	Immediate bool

	SubmittedAt time.Time
}

// Engagement is a per-post interaction snapshot.
type Engagement struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
	Clicks   int `json:"clicks"`
}

// Add accumulates another snapshot into e.
func (e *Engagement) Add(o Engagement) {
	e.Likes += o.Likes
	e.Shares += o.Shares
	e.Comments += o.Comments
	e.Clicks += o.Clicks
}

// Zero reports whether the snapshot carries no interactions.
func (e Engagement) Zero() bool {
	return e.Likes == 0 && e.Shares == 0 && e.Comments == 0 && e.Clicks == 0
}

// PostResult is one per-post outcome inside a job status response.
type PostResult struct {
	Platform      string      `json:"platform"`
	AccountName   string      `json:"account_name,omitempty"`
	PostID        ID          `json:"post_id,omitempty"`
	Status        string      `json:"status"`
	PublishedAt   string      `json:"published_at,omitempty"`
	ScheduledTime string      `json:"scheduled_time,omitempty"`
	Content       string      `json:"content,omitempty"`
	Engagement    *Engagement `json:"engagement,omitempty"`
	ErrorMessage  string      `json:"error_message,omitempty"`
	PostURL       string      `json:"post_url,omitempty"`
}

// JobError is one job-level error entry.
type JobError struct {
	Message string `json:"message"`
	Account string `json:"account,omitempty"`
}

// JobProgress mirrors the upstream progress block, present on responses
// that omit per-post results.
type JobProgress struct {
	TotalPosts     int `json:"total_posts"`
	CompletedPosts int `json:"completed_posts"`
}

// JobStatus is the raw upstream response for GET job_status/{id}.
type JobStatus struct {
	Status              string       `json:"status"`
	Results             []PostResult `json:"results,omitempty"`
	Errors              []JobError   `json:"errors,omitempty"`
	Progress            *JobProgress `json:"progress,omitempty"`
	CreatedAt           string       `json:"created_at,omitempty"`
	StartedAt           string       `json:"started_at,omitempty"`
	CompletedAt         string       `json:"completed_at,omitempty"`
	EstimatedCompletion string       `json:"estimated_completion,omitempty"`
}

// TimeRecommendation is one account's suggested posting time from the
// analytics surface. Confidence lies in [0,1]; this engine consumes the
// score, it never computes one.
type TimeRecommendation struct {
	Time       time.Time `json:"time"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning,omitempty"`
}

// MemberInsights is the analytics payload for one account, keyed by
// account id in the analytics/members response.
type MemberInsights struct {
	BestTimes []TimeRecommendation `json:"best_times,omitempty"`
}

// dataEnvelope is the {"data": ...} wrapper most list endpoints use.
type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// scheduleResponse is the raw acknowledgement of POST posts/schedule.
// Either a job id is present, or the upstream answered synchronously
// with a status/posts body.
type scheduleResponse struct {
	JobID  string          `json:"job_id"`
	Status string          `json:"status"`
	Posts  json.RawMessage `json:"posts,omitempty"`
}
