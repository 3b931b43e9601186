package track

import (
	"context"

	"go.uber.org/zap"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/plan"
	"github.com/plexura/syndic/publer"
)

// BatchStatus summarizes one submission round.
type BatchStatus string

const (
	BatchSubmitted BatchStatus = "bulk_jobs_submitted"
	BatchPartial   BatchStatus = "partial_success"
	BatchFailed    BatchStatus = "all_submissions_failed"
)

// ItemReceipt records one content item accepted upstream.
type ItemReceipt struct {
	PostNumber int // 1-based content item number
	JobID      string
	Immediate  bool
}

// ItemFailure records one content item that could not be submitted.
type ItemFailure struct {
	PostNumber int
	Err        error
}

// BatchResult is the outcome of submitting one plan. Receipts and
// failures together cover every content item that was attempted.
type BatchResult struct {
	PlanID   string
	Receipts []ItemReceipt
	Failures []ItemFailure
}

// Status reduces the result to its batch status.
func (r *BatchResult) Status() BatchStatus {
	switch {
	case len(r.Receipts) == 0:
		return BatchFailed
	case len(r.Failures) > 0:
		return BatchPartial
	default:
		return BatchSubmitted
	}
}

// JobIDs lists the accepted job handles in submission order.
func (r *BatchResult) JobIDs() []string {
	ids := make([]string, 0, len(r.Receipts))
	for _, receipt := range r.Receipts {
		ids = append(ids, receipt.JobID)
	}
	return ids
}

// Submitter pushes scheduling plans upstream one content item at a
// time, in item order.
type Submitter struct {
	client *publer.Client
	logger *zap.SugaredLogger
}

// NewSubmitter returns a submitter around the client. A nil logger is
// replaced with a no-op logger.
func NewSubmitter(client *publer.Client, logger *zap.SugaredLogger) *Submitter {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Submitter{client: client, logger: logger}
}

// Submit sends each of the plan's submission groups as one upstream
// call. A failed item is recorded in the result and submission moves
// on to the next item; authentication, workspace, and rate-limit
// errors abort the round instead, returning the partial result
// alongside the error.
func (s *Submitter) Submit(ctx context.Context, creds publer.Credentials, p *plan.SchedulingPlan) (*BatchResult, error) {
	result := &BatchResult{PlanID: p.ID}

	for i, group := range p.SubmissionGroups() {
		posts := make([]publer.PostSubmission, 0, len(group))
		for _, instruction := range group {
			posts = append(posts, instruction.Submission())
		}

		receipt, err := s.client.SchedulePosts(ctx, creds, publer.SchedulePayload{Posts: posts})
		if err != nil {
			if errors.IsAuthentication(err) || errors.IsWorkspaceRequired(err) || errors.IsRateLimited(err) {
				return result, err
			}
			s.logger.Warnw("content item submission failed",
				"plan_id", p.ID,
				"post_number", i+1,
				"error", err)
			result.Failures = append(result.Failures, ItemFailure{PostNumber: i + 1, Err: err})
			continue
		}

		result.Receipts = append(result.Receipts, ItemReceipt{
			PostNumber: i + 1,
			JobID:      receipt.JobID,
			Immediate:  receipt.Immediate,
		})
	}

	s.logger.Infow("plan submitted",
		"plan_id", p.ID,
		"kind", p.Kind,
		"items", p.Items(),
		"accepted", len(result.Receipts),
		"failed", len(result.Failures))
	return result, nil
}
