package track

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/plan"
	"github.com/plexura/syndic/publer"
)

func testCreds() publer.Credentials {
	return publer.Credentials{APIKey: "test-key", WorkspaceID: "ws-1"}
}

func newTestSubmitter(t *testing.T, handler http.Handler) *Submitter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := publer.NewClient(publer.Config{BaseURL: srv.URL})
	client.SetHTTPClient(srv.Client())
	return NewSubmitter(client, nil)
}

func threeItemPlan() *plan.SchedulingPlan {
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &plan.SchedulingPlan{
		ID:   "batch_ab12cd34",
		Kind: plan.KindSeries,
		Instructions: []plan.PublishInstruction{
			{ItemIndex: 0, AccountID: "tw-1", Content: "one", ScheduledAt: &at},
			{ItemIndex: 1, AccountID: "tw-1", Content: "two"},
			{ItemIndex: 2, AccountID: "tw-1", Content: "three"},
		},
	}
}

func TestSubmitAllAccepted(t *testing.T) {
	var calls int
	var payloads []publer.SchedulePayload
	s := newTestSubmitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/posts/schedule" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload publer.SchedulePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		payloads = append(payloads, payload)
		fmt.Fprintf(w, `{"job_id": "job-%d"}`, calls)
	}))

	result, err := s.Submit(context.Background(), testCreds(), threeItemPlan())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if result.Status() != BatchSubmitted {
		t.Errorf("status = %q", result.Status())
	}
	if calls != 3 || len(result.Receipts) != 3 {
		t.Fatalf("calls = %d, receipts = %d", calls, len(result.Receipts))
	}
	for i, receipt := range result.Receipts {
		if receipt.PostNumber != i+1 {
			t.Errorf("receipt %d has post number %d", i, receipt.PostNumber)
		}
	}
	if ids := result.JobIDs(); len(ids) != 3 || ids[0] != "job-1" || ids[2] != "job-3" {
		t.Errorf("job ids = %v", ids)
	}

	// One post per call, first one carrying its anchor.
	if len(payloads[0].Posts) != 1 || payloads[0].Posts[0].ScheduledTime != "2026-03-10T09:00:00Z" {
		t.Errorf("first payload = %+v", payloads[0])
	}
	if payloads[1].Posts[0].ScheduledTime != "" {
		t.Errorf("second payload should publish immediately: %+v", payloads[1])
	}
}

func TestSubmitRecordsItemFailures(t *testing.T) {
	var calls int
	s := newTestSubmitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"error": "media rejected"}`)
			return
		}
		fmt.Fprintf(w, `{"job_id": "job-%d"}`, calls)
	}))

	result, err := s.Submit(context.Background(), testCreds(), threeItemPlan())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if result.Status() != BatchPartial {
		t.Errorf("status = %q", result.Status())
	}
	if calls != 3 {
		t.Errorf("expected submission to continue past the failure, got %d calls", calls)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures = %+v", result.Failures)
	}
	failure := result.Failures[0]
	if failure.PostNumber != 2 {
		t.Errorf("failed post number = %d", failure.PostNumber)
	}
	if !errors.Is(failure.Err, errors.ErrSubmission) || !strings.Contains(failure.Err.Error(), "media rejected") {
		t.Errorf("failure error = %v", failure.Err)
	}
}

func TestSubmitAllFailed(t *testing.T) {
	s := newTestSubmitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": "backend down"}`)
	}))

	result, err := s.Submit(context.Background(), testCreds(), threeItemPlan())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Status() != BatchFailed {
		t.Errorf("status = %q", result.Status())
	}
	if len(result.Failures) != 3 {
		t.Errorf("failures = %+v", result.Failures)
	}
}

func TestSubmitAbortsOnRateLimit(t *testing.T) {
	var calls int
	s := newTestSubmitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"job_id": "job-%d"}`, calls)
	}))

	result, err := s.Submit(context.Background(), testCreds(), threeItemPlan())
	if !errors.IsRateLimited(err) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected the round to stop at the rate limit, got %d calls", calls)
	}
	if len(result.Receipts) != 1 {
		t.Errorf("partial result should keep the accepted item, got %+v", result.Receipts)
	}
}

func TestSubmitAbortsOnAuthFailure(t *testing.T) {
	var calls int
	s := newTestSubmitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	result, err := s.Submit(context.Background(), testCreds(), threeItemPlan())
	if !errors.IsAuthentication(err) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if calls != 1 || len(result.Receipts) != 0 {
		t.Errorf("calls = %d, receipts = %+v", calls, result.Receipts)
	}
}

func TestSubmitSynchronousReceipt(t *testing.T) {
	s := newTestSubmitter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "success"}`)
	}))

	p := &plan.SchedulingPlan{
		ID:           "batch_ff00aa11",
		Kind:         plan.KindBroadcast,
		Instructions: []plan.PublishInstruction{{AccountID: "tw-1", Content: "now"}},
	}
	result, err := s.Submit(context.Background(), testCreds(), p)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	receipt := result.Receipts[0]
	if !receipt.Immediate || !strings.HasPrefix(receipt.JobID, "sync_") {
		t.Errorf("receipt = %+v", receipt)
	}
}
