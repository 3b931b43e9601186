// Package budget enforces the Publer API quota of 100 requests per
// rolling 2 minutes. Every upstream call is admitted through a single
// Governor; multi-request operations reserve their full weight up front
// so a bulk plan either fits in the window or is refused whole.
package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/plexura/syndic/errors"
)

// Publer's documented quota.
const (
	PublerMaxCalls = 100
	PublerWindow   = 2 * time.Minute
)

// NewPublerGovernor creates a governor sized to the Publer quota.
func NewPublerGovernor() *Governor {
	return NewGovernor(PublerMaxCalls, PublerWindow)
}

// Governor enforces max calls per time window using a sliding window
type Governor struct {
	maxCalls  int
	window    time.Duration
	mu        sync.Mutex
	callTimes []time.Time
	timeNow   func() time.Time // Injectable for testing
}

// NewGovernor creates a governor with real time
func NewGovernor(maxCalls int, window time.Duration) *Governor {
	return NewGovernorWithClock(maxCalls, window, time.Now)
}

// NewGovernorWithClock creates a governor with injectable clock (for testing)
func NewGovernorWithClock(maxCalls int, window time.Duration, timeNow func() time.Time) *Governor {
	return &Governor{
		maxCalls:  maxCalls,
		window:    window,
		callTimes: make([]time.Time, 0, maxCalls),
		timeNow:   timeNow,
	}
}

// Admit reserves weight upstream calls under the quota, all or nothing.
// A denial carries the retry-after hint for when enough capacity frees up.
func (g *Governor) Admit(weight int) error {
	if weight <= 0 {
		return errors.Newf("admission weight must be positive, got %d", weight)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if weight > g.maxCalls {
		err := errors.Newf("operation needs %d calls but the window only holds %d", weight, g.maxCalls)
		return errors.WithHint(err, "Split the request into smaller batches")
	}

	now := g.timeNow()
	g.removeExpiredCalls(now)

	free := g.maxCalls - len(g.callTimes)
	if weight > free {
		after := g.retryAfterLocked(now, weight)
		err := errors.NewRateLimitError(after)
		err = errors.WithDetail(err, fmt.Sprintf("Calls in window: %d of %d", len(g.callTimes), g.maxCalls))
		err = errors.WithDetail(err, fmt.Sprintf("Requested weight: %d, free capacity: %d", weight, free))
		return err
	}

	for i := 0; i < weight; i++ {
		g.callTimes = append(g.callTimes, now)
	}

	return nil
}

// Wait blocks until weight calls are admitted or the context is cancelled
func (g *Governor) Wait(ctx context.Context, weight int) error {
	for {
		err := g.Admit(weight)
		if err == nil {
			return nil
		}
		if !errors.IsRateLimited(err) {
			return err
		}

		delay := 100 * time.Millisecond
		if after, ok := errors.RetryAfter(err); ok && after > delay {
			delay = after
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// retryAfterLocked computes how long until weight slots free up.
// Must be called with lock held, after expired calls are pruned.
func (g *Governor) retryAfterLocked(now time.Time, weight int) time.Duration {
	free := g.maxCalls - len(g.callTimes)
	needed := weight - free
	if needed <= 0 || needed > len(g.callTimes) {
		return g.window
	}

	// Oldest entries expire first; the needed-th expiry frees enough slots
	freeAt := g.callTimes[needed-1].Add(g.window)
	after := freeAt.Sub(now)
	if after < 0 {
		after = 0
	}
	return after
}

// SyncRemote reconciles local state with the server's rate limit headers.
// The stricter view wins: if the server reports less capacity than we
// think remains, synthetic entries are backfilled to match.
func (g *Governor) SyncRemote(remaining int, reset time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.timeNow()
	g.removeExpiredCalls(now)

	used := g.maxCalls - remaining
	if used < 0 {
		used = 0
	}
	if used > g.maxCalls {
		used = g.maxCalls
	}
	if used <= len(g.callTimes) {
		return
	}

	// Backfill timestamps that expire when the server window resets
	syntheticAt := now
	if reset.After(now) {
		syntheticAt = reset.Add(-g.window)
		if syntheticAt.After(now) {
			syntheticAt = now
		}
	}
	// Keep callTimes ordered for front pruning
	if len(g.callTimes) > 0 && syntheticAt.After(g.callTimes[0]) {
		syntheticAt = g.callTimes[0]
	}

	backfill := make([]time.Time, used-len(g.callTimes))
	for i := range backfill {
		backfill[i] = syntheticAt
	}
	g.callTimes = append(backfill, g.callTimes...)
}

// removeExpiredCalls removes call timestamps outside the sliding window
// Must be called with lock held
func (g *Governor) removeExpiredCalls(now time.Time) {
	cutoff := now.Add(-g.window)

	expired := 0
	for _, callTime := range g.callTimes {
		if !callTime.After(cutoff) {
			expired++
		} else {
			break
		}
	}

	g.callTimes = g.callTimes[expired:]
}

// Reset clears the governor state
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.callTimes = g.callTimes[:0]
}

// Stats returns current admission statistics
func (g *Governor) Stats() (callsInWindow int, remaining int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.timeNow()
	g.removeExpiredCalls(now)

	callsInWindow = len(g.callTimes)
	remaining = g.maxCalls - callsInWindow
	if remaining < 0 {
		remaining = 0
	}

	return callsInWindow, remaining
}
