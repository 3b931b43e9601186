package optimal

import (
	"strings"
	"testing"
	"time"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/publer"
)

var selectorNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSelector(cfg Config) *Selector {
	s := NewSelector(cfg)
	s.now = func() time.Time { return selectorNow }
	return s
}

func rec(offset time.Duration, confidence float64) publer.TimeRecommendation {
	return publer.TimeRecommendation{
		Time:       selectorNow.Add(offset),
		Confidence: confidence,
		Reasoning:  "historical engagement peak",
	}
}

func insightsFor(recs map[string][]publer.TimeRecommendation) map[string]publer.MemberInsights {
	out := make(map[string]publer.MemberInsights, len(recs))
	for id, best := range recs {
		out[id] = publer.MemberInsights{BestTimes: best}
	}
	return out
}

func TestSelectAgreementWins(t *testing.T) {
	s := newTestSelector(Config{})
	insights := insightsFor(map[string][]publer.TimeRecommendation{
		"acc-1": {rec(24*time.Hour, 0.9)},
		"acc-2": {rec(24*time.Hour+30*time.Minute, 0.8)},
		"acc-3": {rec(72*time.Hour, 0.84)},
	})
	targets := []Target{
		{AccountID: "acc-1", Platform: "twitter"},
		{AccountID: "acc-2", Platform: "linkedin"},
		{AccountID: "acc-3", Platform: "facebook"},
	}

	decision, err := s.Select(insights, targets, RangeNext7Days)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	want := selectorNow.Add(24 * time.Hour)
	if !decision.SelectedTime.Equal(want) {
		t.Errorf("selected time = %s, want %s", decision.SelectedTime, want)
	}
	if len(decision.Agreeing) != 2 {
		t.Errorf("expected 2 agreeing candidates, got %d", len(decision.Agreeing))
	}
	if decision.MeanConfidence < 0.849 || decision.MeanConfidence > 0.851 {
		t.Errorf("mean confidence = %f, want ~0.85", decision.MeanConfidence)
	}
	if len(decision.Considered) != 3 {
		t.Errorf("expected 3 considered candidates, got %d", len(decision.Considered))
	}
}

func TestSelectLoneHighConfidence(t *testing.T) {
	s := newTestSelector(Config{})
	insights := insightsFor(map[string][]publer.TimeRecommendation{
		"acc-1": {rec(24*time.Hour, 0.6)},
		"acc-2": {rec(24*time.Hour+15*time.Minute, 0.55)},
		"acc-3": {rec(48*time.Hour, 0.9)},
	})
	targets := []Target{
		{AccountID: "acc-1"}, {AccountID: "acc-2"}, {AccountID: "acc-3"},
	}

	decision, err := s.Select(insights, targets, RangeNext7Days)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	want := selectorNow.Add(48 * time.Hour)
	if !decision.SelectedTime.Equal(want) {
		t.Errorf("selected time = %s, want lone high-confidence time %s", decision.SelectedTime, want)
	}
}

func TestSelectTieBrokenByEarliest(t *testing.T) {
	s := newTestSelector(Config{})
	insights := insightsFor(map[string][]publer.TimeRecommendation{
		"acc-1": {rec(48*time.Hour, 0.8)},
		"acc-2": {rec(24*time.Hour, 0.8)},
	})
	targets := []Target{{AccountID: "acc-1"}, {AccountID: "acc-2"}}

	decision, err := s.Select(insights, targets, RangeNext7Days)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	want := selectorNow.Add(24 * time.Hour)
	if !decision.SelectedTime.Equal(want) {
		t.Errorf("selected time = %s, want earliest tied time %s", decision.SelectedTime, want)
	}
}

func TestSelectConfidenceFloor(t *testing.T) {
	s := newTestSelector(Config{})
	insights := insightsFor(map[string][]publer.TimeRecommendation{
		"acc-1": {rec(24*time.Hour, 0.45)},
		"acc-2": {rec(48*time.Hour, 0.3)},
	})
	targets := []Target{{AccountID: "acc-1"}, {AccountID: "acc-2"}}

	decision, err := s.Select(insights, targets, RangeNext7Days)
	if !errors.Is(err, ErrNoUsableTimes) {
		t.Fatalf("expected ErrNoUsableTimes, got %v", err)
	}
	if !strings.Contains(err.Error(), "confidence floor") {
		t.Errorf("unexpected error message: %v", err)
	}
	if len(decision.Considered) != 2 {
		t.Errorf("expected 2 considered candidates on failure, got %d", len(decision.Considered))
	}
	if len(decision.Discarded) != 2 {
		t.Errorf("expected 2 discarded candidates, got %d", len(decision.Discarded))
	}
}

func TestSelectEmptyWindow(t *testing.T) {
	s := newTestSelector(Config{})
	insights := insightsFor(map[string][]publer.TimeRecommendation{
		"acc-1": {rec(30*time.Hour, 0.9)},
	})
	targets := []Target{{AccountID: "acc-1"}}

	decision, err := s.Select(insights, targets, RangeNext24h)
	if !errors.Is(err, ErrNoUsableTimes) {
		t.Fatalf("expected ErrNoUsableTimes, got %v", err)
	}
	if !strings.Contains(err.Error(), "window") {
		t.Errorf("unexpected error message: %v", err)
	}
	if len(decision.Considered) != 0 {
		t.Errorf("expected no considered candidates, got %d", len(decision.Considered))
	}
}

func TestSelectBestRecommendationPerAccount(t *testing.T) {
	s := newTestSelector(Config{})
	insights := insightsFor(map[string][]publer.TimeRecommendation{
		"acc-1": {
			rec(2*time.Hour, 0.6),
			rec(5*time.Hour, 0.9),
			rec(10*24*time.Hour, 0.99),
		},
	})
	targets := []Target{{AccountID: "acc-1", Platform: "twitter"}}

	decision, err := s.Select(insights, targets, RangeNext7Days)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	want := selectorNow.Add(5 * time.Hour)
	if !decision.SelectedTime.Equal(want) {
		t.Errorf("selected time = %s, want %s", decision.SelectedTime, want)
	}
	if len(decision.Considered) != 1 {
		t.Errorf("expected one candidate per account, got %d", len(decision.Considered))
	}
}

func TestSelectMixedDiscard(t *testing.T) {
	s := newTestSelector(Config{})
	insights := insightsFor(map[string][]publer.TimeRecommendation{
		"acc-1": {rec(24*time.Hour, 0.7)},
		"acc-2": {rec(48*time.Hour, 0.4)},
	})
	targets := []Target{{AccountID: "acc-1"}, {AccountID: "acc-2"}}

	decision, err := s.Select(insights, targets, RangeNext7Days)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(decision.Considered) != 2 || len(decision.Discarded) != 1 || len(decision.Agreeing) != 1 {
		t.Errorf("considered/discarded/agreeing = %d/%d/%d, want 2/1/1",
			len(decision.Considered), len(decision.Discarded), len(decision.Agreeing))
	}
}

func TestParseGoal(t *testing.T) {
	if g, err := ParseGoal(""); err != nil || g != GoalEngagement {
		t.Errorf("ParseGoal(\"\") = %q, %v, want engagement default", g, err)
	}
	if g, err := ParseGoal("reach"); err != nil || g != GoalReach {
		t.Errorf("ParseGoal(reach) = %q, %v", g, err)
	}
	if _, err := ParseGoal("virality"); !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParseDateRange(t *testing.T) {
	if r, err := ParseDateRange(""); err != nil || r != RangeNext7Days {
		t.Errorf("ParseDateRange(\"\") = %q, %v, want next_7_days default", r, err)
	}
	if r, err := ParseDateRange("next_48h"); err != nil || r != RangeNext48h {
		t.Errorf("ParseDateRange(next_48h) = %q, %v", r, err)
	}
	if _, err := ParseDateRange("next_month"); !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	if d := RangeNext14Days.Duration(); d != 14*24*time.Hour {
		t.Errorf("next_14_days duration = %s", d)
	}
}

func TestStrategyDescription(t *testing.T) {
	at := time.Date(2026, 3, 2, 14, 5, 0, 0, time.UTC)

	got := StrategyDescription(GoalEngagement, at, nil)
	if !strings.Contains(got, "Monday at 02:05 PM") {
		t.Errorf("unexpected description: %q", got)
	}
	if !strings.Contains(got, "likes, comments, and shares") {
		t.Errorf("unexpected goal text: %q", got)
	}

	est := time.FixedZone("EST", -5*3600)
	got = StrategyDescription(GoalReach, at, est)
	if !strings.Contains(got, "09:05 AM") {
		t.Errorf("expected location-adjusted clock, got %q", got)
	}
}

func TestPerformanceEstimate(t *testing.T) {
	if got := PerformanceEstimate(GoalEngagement, 0.85); got != "20-40% higher engagement expected" {
		t.Errorf("high confidence estimate = %q", got)
	}
	if got := PerformanceEstimate(GoalReach, 0.65); got != "8-20% more impressions expected" {
		t.Errorf("medium confidence estimate = %q", got)
	}
	if got := PerformanceEstimate(GoalClicks, 0.3); got != "Potential for better click rates" {
		t.Errorf("low confidence estimate = %q", got)
	}
}
