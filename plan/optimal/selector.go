// Package optimal selects a single posting time from per-account
// analytics recommendations.
//
// Each target account contributes at most one candidate time inside
// the scheduling window. Candidates below the confidence floor are
// discarded, and the survivors are grouped by agreement: the selected
// time is the candidate whose agreement group has the highest mean
// confidence, with ties broken by the earliest time.
package optimal

import (
	"time"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/publer"
)

// Goal names what the selection optimizes for.
type Goal string

const (
	GoalEngagement Goal = "engagement"
	GoalReach      Goal = "reach"
	GoalClicks     Goal = "clicks"
	GoalGeneral    Goal = "general"
)

// ParseGoal validates a goal name. Empty input selects engagement.
func ParseGoal(s string) (Goal, error) {
	switch g := Goal(s); g {
	case "":
		return GoalEngagement, nil
	case GoalEngagement, GoalReach, GoalClicks, GoalGeneral:
		return g, nil
	default:
		return "", errors.WithHint(
			errors.NewValidationError("invalid optimization goal %q: must be one of engagement, reach, clicks, general", s),
			"Choose a valid optimization goal")
	}
}

// DateRange names the scheduling window measured from now.
type DateRange string

const (
	RangeNext24h    DateRange = "next_24h"
	RangeNext48h    DateRange = "next_48h"
	RangeNext7Days  DateRange = "next_7_days"
	RangeNext14Days DateRange = "next_14_days"
)

// ParseDateRange validates a window name. Empty input selects the next
// seven days.
func ParseDateRange(s string) (DateRange, error) {
	switch r := DateRange(s); r {
	case "":
		return RangeNext7Days, nil
	case RangeNext24h, RangeNext48h, RangeNext7Days, RangeNext14Days:
		return r, nil
	default:
		return "", errors.WithHint(
			errors.NewValidationError("invalid date range %q: must be one of next_24h, next_48h, next_7_days, next_14_days", s),
			"Choose a valid date range for scheduling")
	}
}

// Duration returns the window length.
func (r DateRange) Duration() time.Duration {
	switch r {
	case RangeNext24h:
		return 24 * time.Hour
	case RangeNext48h:
		return 48 * time.Hour
	case RangeNext14Days:
		return 14 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// ErrNoUsableTimes marks a selection with no candidate above the
// confidence floor inside the window. Callers fall back to a fixed
// time or to immediate publishing.
var ErrNoUsableTimes = errors.New("no usable timing recommendations")

// Target is one account the selection covers.
type Target struct {
	AccountID string
	Platform  string
	Name      string
}

// Candidate is one account's best in-window recommendation.
type Candidate struct {
	AccountID  string
	Platform   string
	Name       string
	Time       time.Time
	Confidence float64
	Reasoning  string
}

// Config bounds the selection.
type Config struct {
	// MinConfidence discards weaker candidates. Defaults to 0.5.
	MinConfidence float64
	// AgreementWindow groups candidates whose times fall within it of
	// each other. Defaults to one hour.
	AgreementWindow time.Duration
}

const (
	DefaultMinConfidence   = 0.5
	DefaultAgreementWindow = time.Hour
)

// Decision reports a selection outcome. Considered always lists every
// candidate that entered the selection, discarded ones included.
type Decision struct {
	SelectedTime   time.Time
	MeanConfidence float64
	Agreeing       []Candidate
	Considered     []Candidate
	Discarded      []Candidate
}

// Selector picks posting times.
type Selector struct {
	minConfidence   float64
	agreementWindow time.Duration
	now             func() time.Time
}

// NewSelector returns a selector, applying defaults for zero config
// fields.
func NewSelector(cfg Config) *Selector {
	s := &Selector{
		minConfidence:   cfg.MinConfidence,
		agreementWindow: cfg.AgreementWindow,
		now:             time.Now,
	}
	if s.minConfidence == 0 {
		s.minConfidence = DefaultMinConfidence
	}
	if s.agreementWindow == 0 {
		s.agreementWindow = DefaultAgreementWindow
	}
	return s
}

// Select picks the posting time for the targets from their analytics
// insights.
//
// Each target contributes its highest-confidence recommendation inside
// the window, ties broken by the earliest time. When no candidate
// clears the confidence floor the returned error matches
// ErrNoUsableTimes and the decision still carries every considered
// candidate for reporting.
func (s *Selector) Select(insights map[string]publer.MemberInsights, targets []Target, dateRange DateRange) (*Decision, error) {
	windowStart := s.now()
	windowEnd := windowStart.Add(dateRange.Duration())

	decision := &Decision{}
	var usable []Candidate
	for _, target := range targets {
		best, ok := bestInWindow(insights[target.AccountID].BestTimes, windowStart, windowEnd)
		if !ok {
			continue
		}
		candidate := Candidate{
			AccountID:  target.AccountID,
			Platform:   target.Platform,
			Name:       target.Name,
			Time:       best.Time,
			Confidence: best.Confidence,
			Reasoning:  best.Reasoning,
		}
		decision.Considered = append(decision.Considered, candidate)
		if candidate.Confidence < s.minConfidence {
			decision.Discarded = append(decision.Discarded, candidate)
			continue
		}
		usable = append(usable, candidate)
	}

	if len(usable) == 0 {
		if len(decision.Considered) == 0 {
			return decision, errors.Mark(
				errors.Newf("no timing recommendations inside the %s window", dateRange),
				ErrNoUsableTimes)
		}
		return decision, errors.Mark(
			errors.Newf("all %d timing recommendations fell below the %.2f confidence floor", len(decision.Considered), s.minConfidence),
			ErrNoUsableTimes)
	}

	// Score each candidate by the mean confidence of the candidates
	// that agree with it, then keep the best-scoring group.
	var (
		bestScore float64
		bestTime  time.Time
		bestGroup []Candidate
	)
	for _, center := range usable {
		var group []Candidate
		var sum float64
		for _, other := range usable {
			if within(center.Time, other.Time, s.agreementWindow) {
				group = append(group, other)
				sum += other.Confidence
			}
		}
		score := sum / float64(len(group))
		if len(bestGroup) == 0 || score > bestScore || (score == bestScore && center.Time.Before(bestTime)) {
			bestScore = score
			bestTime = center.Time
			bestGroup = group
		}
	}

	decision.SelectedTime = bestTime
	decision.MeanConfidence = bestScore
	decision.Agreeing = bestGroup
	return decision, nil
}

func bestInWindow(recs []publer.TimeRecommendation, start, end time.Time) (publer.TimeRecommendation, bool) {
	var best publer.TimeRecommendation
	found := false
	for _, rec := range recs {
		if rec.Time.Before(start) || rec.Time.After(end) {
			continue
		}
		if !found || rec.Confidence > best.Confidence ||
			(rec.Confidence == best.Confidence && rec.Time.Before(best.Time)) {
			best = rec
			found = true
		}
	}
	return best, found
}

func within(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}

// StrategyDescription renders the selection in human terms, in the
// given location when one is supplied.
func StrategyDescription(goal Goal, at time.Time, loc *time.Location) string {
	if loc != nil {
		at = at.In(loc)
	}
	day := at.Format("Monday")
	clock := at.Format("03:04 PM")

	switch goal {
	case GoalEngagement:
		return "Scheduled for " + day + " at " + clock + " to maximize likes, comments, and shares"
	case GoalReach:
		return "Scheduled for " + day + " at " + clock + " to reach the largest audience across time zones"
	case GoalClicks:
		return "Scheduled for " + day + " at " + clock + " when audiences are most likely to click through"
	case GoalGeneral:
		return "Scheduled for " + day + " at " + clock + " based on overall best practices"
	default:
		return "Scheduled for " + day + " at " + clock
	}
}

// PerformanceEstimate renders an expected improvement for the goal,
// tiered by confidence.
func PerformanceEstimate(goal Goal, confidence float64) string {
	switch {
	case confidence >= 0.8:
		switch goal {
		case GoalEngagement:
			return "20-40% higher engagement expected"
		case GoalReach:
			return "15-30% more impressions expected"
		case GoalClicks:
			return "25-45% higher click-through rate expected"
		default:
			return "15-25% better overall performance expected"
		}
	case confidence >= 0.6:
		switch goal {
		case GoalEngagement:
			return "10-25% higher engagement expected"
		case GoalReach:
			return "8-20% more impressions expected"
		case GoalClicks:
			return "15-30% higher click-through rate expected"
		default:
			return "8-15% better overall performance expected"
		}
	default:
		switch goal {
		case GoalEngagement:
			return "Moderate improvement expected"
		case GoalReach:
			return "Some increase in reach expected"
		case GoalClicks:
			return "Potential for better click rates"
		default:
			return "Better timing than random posting"
		}
	}
}
