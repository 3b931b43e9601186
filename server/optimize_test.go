package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/plexura/syndic/publer"
)

func TestOptimalScheduler(t *testing.T) {
	t.Run("schedules at the agreed best time", func(t *testing.T) {
		best1 := time.Now().Add(26 * time.Hour).UTC().Truncate(time.Second)
		best2 := best1.Add(20 * time.Minute)

		var submitted publer.SchedulePayload
		s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/accounts":
				w.Write([]byte(accountsJSON))
			case "/analytics/members":
				fmt.Fprintf(w, `{"data": {
					"tw-1": {"best_times": [{"time": %q, "confidence": 0.9, "reasoning": "weekday engagement peak"}]},
					"li-1": {"best_times": [{"time": %q, "confidence": 0.8, "reasoning": "lunch hour browsing"}]}
				}}`, best1.Format(time.RFC3339), best2.Format(time.RFC3339))
			case "/posts/schedule":
				if err := json.NewDecoder(r.Body).Decode(&submitted); err != nil {
					t.Errorf("decoding submission: %v", err)
				}
				w.Write([]byte(`{"job_id": "job_opt_1"}`))
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		payload := callTool(t, s.handleOptimalScheduler, map[string]any{
			"content":          "Launch day",
			"target_platforms": []any{"tw-1", "li-1"},
		})
		if payload["status"] != "optimized_job_submitted" {
			t.Fatalf("expected optimized_job_submitted, got %v", payload)
		}
		if payload["job_id"] != "job_opt_1" {
			t.Errorf("unexpected job id: %v", payload["job_id"])
		}

		results := nested(t, payload, "optimization_results")
		// Both candidates agree within the hour; the earlier one anchors
		// the group.
		want := best1.Format(time.RFC3339)
		if results["selected_time"] != want {
			t.Errorf("expected %s selected, got %v", want, results["selected_time"])
		}
		if results["average_confidence"] != 0.85 {
			t.Errorf("expected mean confidence 0.85, got %v", results["average_confidence"])
		}
		if results["optimization_goal"] != "engagement" {
			t.Errorf("expected default goal, got %v", results["optimization_goal"])
		}
		if results["timezone"] != "UTC" {
			t.Errorf("expected UTC, got %v", results["timezone"])
		}
		if results["platforms_analyzed"] != float64(2) || results["data_points_used"] != float64(2) {
			t.Errorf("unexpected analysis counts: %v", results)
		}
		recs := entries(t, results, "recommended_times")
		if len(recs) != 2 {
			t.Fatalf("expected both recommendations echoed, got %v", recs)
		}
		if entryAt(t, recs, 0)["confidence"] != 0.9 {
			t.Errorf("unexpected first recommendation: %v", recs[0])
		}
		if entryAt(t, recs, 1)["reasoning"] != "lunch hour browsing" {
			t.Errorf("unexpected second recommendation: %v", recs[1])
		}

		posts := entries(t, payload, "scheduled_posts")
		if len(posts) != 2 {
			t.Fatalf("expected 2 scheduled posts, got %d", len(posts))
		}
		for _, raw := range posts {
			post := raw.(map[string]any)
			if post["scheduled_time"] != want {
				t.Errorf("expected every post at the selected time, got %v", post["scheduled_time"])
			}
			if _, ok := post["confidence"]; !ok {
				t.Errorf("expected per-post confidence, got %v", post)
			}
		}

		summary := nested(t, payload, "summary")
		strategy, _ := summary["selected_strategy"].(string)
		if !strings.Contains(strategy, "to maximize likes, comments, and shares") {
			t.Errorf("unexpected strategy: %q", strategy)
		}
		if summary["estimated_performance"] != "20-40% higher engagement expected" {
			t.Errorf("unexpected estimate: %v", summary["estimated_performance"])
		}

		if got := submitted.Posts[0].ScheduledTime; got != want {
			t.Errorf("expected submission scheduled at %s, got %q", want, got)
		}
	})

	t.Run("falls back to the requested time", func(t *testing.T) {
		fallback := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second).Format(time.RFC3339)
		s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/accounts":
				w.Write([]byte(accountsJSON))
			case "/analytics/members":
				w.Write([]byte(`{"data": {}}`))
			case "/posts/schedule":
				w.Write([]byte(`{"job_id": "job_opt_2"}`))
			}
		}))

		payload := callTool(t, s.handleOptimalScheduler, map[string]any{
			"content":          "Launch day",
			"target_platforms": []any{"tw-1"},
			"fallback_time":    fallback,
		})
		if payload["status"] != "optimized_job_submitted" {
			t.Fatalf("expected optimized_job_submitted, got %v", payload)
		}

		results := nested(t, payload, "optimization_results")
		if results["selected_time"] != fallback {
			t.Errorf("expected fallback time selected, got %v", results["selected_time"])
		}
		if results["average_confidence"] != float64(0) || results["data_points_used"] != float64(0) {
			t.Errorf("expected empty analysis, got %v", results)
		}
		if len(entries(t, results, "recommended_times")) != 0 {
			t.Errorf("expected no recommendations, got %v", results["recommended_times"])
		}

		summary := nested(t, payload, "summary")
		if summary["selected_strategy"] != "Scheduled at the requested fallback time" {
			t.Errorf("unexpected strategy: %v", summary["selected_strategy"])
		}
		if summary["estimated_performance"] != "Moderate improvement expected" {
			t.Errorf("unexpected estimate: %v", summary["estimated_performance"])
		}
	})

	t.Run("degraded analytics publish immediately", func(t *testing.T) {
		s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/accounts":
				w.Write([]byte(accountsJSON))
			case "/analytics/members":
				w.WriteHeader(http.StatusInternalServerError)
			case "/posts/schedule":
				w.Write([]byte(`{"job_id": "job_opt_3"}`))
			}
		}))

		payload := callTool(t, s.handleOptimalScheduler, map[string]any{
			"content":          "Launch day",
			"target_platforms": []any{"tw-1"},
		})
		if payload["status"] != "optimized_job_submitted" {
			t.Fatalf("expected a submitted job despite missing analytics, got %v", payload)
		}
		results := nested(t, payload, "optimization_results")
		if results["selected_time"] != "immediate" {
			t.Errorf("expected immediate publishing, got %v", results["selected_time"])
		}
		summary := nested(t, payload, "summary")
		if summary["selected_strategy"] != "Immediate posting (no usable timing recommendations)" {
			t.Errorf("unexpected strategy: %v", summary["selected_strategy"])
		}
	})

	t.Run("rate-limited analytics abort the call", func(t *testing.T) {
		scheduleCalls := 0
		s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/accounts":
				w.Write([]byte(accountsJSON))
			case "/analytics/members":
				w.Header().Set("Retry-After", "13")
				w.WriteHeader(http.StatusTooManyRequests)
			case "/posts/schedule":
				scheduleCalls++
			}
		}))

		payload := callTool(t, s.handleOptimalScheduler, map[string]any{
			"content":          "Launch day",
			"target_platforms": []any{"tw-1"},
		})
		if payload["status"] != "rate_limited" {
			t.Fatalf("expected rate_limited, got %v", payload)
		}
		if payload["retry_after_seconds"] != float64(13) {
			t.Errorf("expected upstream backoff, got %v", payload["retry_after_seconds"])
		}
		if scheduleCalls != 0 {
			t.Errorf("expected no submission, got %d", scheduleCalls)
		}
	})

	t.Run("input validation stops before any request", func(t *testing.T) {
		requests := 0
		s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))

		cases := []struct {
			name string
			args map[string]any
		}{
			{"unknown goal", map[string]any{
				"content":          "x",
				"target_platforms": []any{"tw-1"},
				"goal":             "viral",
			}},
			{"unknown date range", map[string]any{
				"content":          "x",
				"target_platforms": []any{"tw-1"},
				"date_range":       "next_year",
			}},
			{"unknown timezone", map[string]any{
				"content":          "x",
				"target_platforms": []any{"tw-1"},
				"timezone":         "nowhere-land",
			}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				payload := callTool(t, s.handleOptimalScheduler, tc.args)
				if payload["status"] != "validation_failed" {
					t.Errorf("expected validation_failed, got %v", payload["status"])
				}
			})
		}
		if requests != 0 {
			t.Errorf("expected no upstream requests, got %d", requests)
		}
	})
}
