package budget

import (
	"sync"
	"testing"
	"time"

	"github.com/plexura/syndic/errors"
)

// mockClock allows controlling time in tests
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock(now time.Time) *mockClock {
	return &mockClock{now: now}
}

func (m *mockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *mockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Test Case 1: Under Limit
// Given: Governor configured for 10 calls per 2 minutes
// When: Making 5 calls within the window
// Then: All calls should be admitted
func TestGovernor_UnderLimit(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(10, 2*time.Minute, clock.Now)

	for i := 0; i < 5; i++ {
		if err := gov.Admit(1); err != nil {
			t.Errorf("Call %d: expected no error, got %v", i+1, err)
		}
		clock.Advance(1 * time.Second)
	}
}

// Test Case 2: Publer Quota
// Given: Governor at the production quota of 100 calls per 2 minutes
// When: Making exactly 100 calls
// Then: All admitted, the 101st is denied
func TestGovernor_PublerQuota(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(100, 2*time.Minute, clock.Now)

	for i := 0; i < 100; i++ {
		if err := gov.Admit(1); err != nil {
			t.Fatalf("Call %d: expected admission, got %v", i+1, err)
		}
		clock.Advance(100 * time.Millisecond)
	}

	err := gov.Admit(1)
	if err == nil {
		t.Fatal("Call 101: expected denial, got admission")
	}
	if !errors.IsRateLimited(err) {
		t.Errorf("Call 101: expected rate-limited error, got %v", err)
	}
}

// Test Case 3: Window Reset
// Given: Governor at capacity
// When: Waiting past the window
// Then: Next call should be admitted
func TestGovernor_WindowReset(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(10, 2*time.Minute, clock.Now)

	for i := 0; i < 10; i++ {
		if err := gov.Admit(1); err != nil {
			t.Fatalf("Setup call %d failed: %v", i+1, err)
		}
	}

	if err := gov.Admit(1); err == nil {
		t.Error("Expected denial before window reset")
	}

	clock.Advance(2*time.Minute + time.Second)

	if err := gov.Admit(1); err != nil {
		t.Errorf("Expected admission after window reset, got error: %v", err)
	}
}

// Test Case 4: Weighted Admission
// Given: Governor with 10 slots
// When: Admitting weight 7, then weight 4
// Then: Weight 7 fits, weight 4 is denied whole, weight 3 fits
func TestGovernor_WeightedAdmission(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(10, 2*time.Minute, clock.Now)

	if err := gov.Admit(7); err != nil {
		t.Fatalf("Weight 7 should fit in empty window: %v", err)
	}

	if err := gov.Admit(4); err == nil {
		t.Fatal("Weight 4 should be denied with only 3 slots free")
	}

	// Denial is all-or-nothing: the 3 free slots remain untouched
	if calls, remaining := gov.Stats(); calls != 7 || remaining != 3 {
		t.Errorf("Expected 7 used / 3 free after denial, got %d / %d", calls, remaining)
	}

	if err := gov.Admit(3); err != nil {
		t.Errorf("Weight 3 should fit in remaining capacity: %v", err)
	}
}

// Test Case 5: Weight Beyond Window
// Given: Governor with 10 slots
// When: Admitting weight 11
// Then: Denied regardless of current usage, with a batching hint
func TestGovernor_WeightBeyondWindow(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(10, 2*time.Minute, clock.Now)

	err := gov.Admit(11)
	if err == nil {
		t.Fatal("Expected denial for weight exceeding window capacity")
	}
	if errors.IsRateLimited(err) {
		t.Error("Oversized weight is a caller error, not a rate limit")
	}
}

// Test Case 6: Retry-After Hint
// Given: Governor filled at T=0
// When: Denied at T=30s
// Then: Retry-after reflects time until the oldest entry expires (90s)
func TestGovernor_RetryAfterHint(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(10, 2*time.Minute, clock.Now)

	for i := 0; i < 10; i++ {
		if err := gov.Admit(1); err != nil {
			t.Fatalf("Setup call %d failed: %v", i+1, err)
		}
	}

	clock.Advance(30 * time.Second)

	err := gov.Admit(1)
	if err == nil {
		t.Fatal("Expected denial at capacity")
	}

	after, ok := errors.RetryAfter(err)
	if !ok {
		t.Fatal("Denial should carry a retry-after hint")
	}
	if after != 90*time.Second {
		t.Errorf("Expected retry-after 90s, got %v", after)
	}
}

// Test Case 7: Concurrent Safety
// Given: Governor with 100 slots
// When: 10 goroutines each admit 20 calls (200 total)
// Then: Exactly 100 succeed (use -race flag)
func TestGovernor_Concurrent(t *testing.T) {
	gov := NewGovernor(100, 2*time.Minute)

	var wg sync.WaitGroup
	results := make(chan bool, 200)

	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				err := gov.Admit(1)
				results <- (err == nil)
			}
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for success := range results {
		if success {
			successCount++
		}
	}

	if successCount != 100 {
		t.Errorf("Expected exactly 100 admissions, got %d", successCount)
	}
}

// Test Case 8: One Slot, Two Claimants
// Given: Governor with one slot free
// When: Two goroutines race for it
// Then: Exactly one wins
func TestGovernor_OneSlotTwoClaimants(t *testing.T) {
	gov := NewGovernor(1, 2*time.Minute)

	var wg sync.WaitGroup
	results := make(chan bool, 2)

	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- (gov.Admit(1) == nil)
		}()
	}

	wg.Wait()
	close(results)

	wins := 0
	for won := range results {
		if won {
			wins++
		}
	}

	if wins != 1 {
		t.Errorf("Expected exactly 1 admission, got %d", wins)
	}
}

// Test Case 9: Remote Sync Tightens
// Given: Local state shows 2 calls used, server reports 90 used
// When: SyncRemote applies the headers
// Then: Local capacity matches the stricter server view
func TestGovernor_SyncRemoteTightens(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(100, 2*time.Minute, clock.Now)

	gov.Admit(1)
	gov.Admit(1)

	gov.SyncRemote(10, clock.Now().Add(45*time.Second))

	calls, remaining := gov.Stats()
	if calls != 90 || remaining != 10 {
		t.Errorf("Expected 90 used / 10 free after sync, got %d / %d", calls, remaining)
	}

	// Synthetic entries expire with the server window
	clock.Advance(46 * time.Second)
	_, remaining = gov.Stats()
	if remaining < 98 {
		t.Errorf("Expected synthetic entries expired by server reset, %d free", remaining)
	}
}

// Test Case 10: Remote Sync Never Loosens
// Given: Local state shows 50 calls used, server reports 10 used
// When: SyncRemote applies the headers
// Then: Local state is unchanged
func TestGovernor_SyncRemoteNeverLoosens(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(100, 2*time.Minute, clock.Now)

	for i := 0; i < 50; i++ {
		gov.Admit(1)
	}

	gov.SyncRemote(90, clock.Now().Add(time.Minute))

	calls, _ := gov.Stats()
	if calls != 50 {
		t.Errorf("Expected local view preserved at 50, got %d", calls)
	}
}

// Test Case 11: Reset Functionality
func TestGovernor_Reset(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(10, 2*time.Minute, clock.Now)

	for i := 0; i < 10; i++ {
		if err := gov.Admit(1); err != nil {
			t.Fatalf("Setup call %d failed: %v", i+1, err)
		}
	}

	if err := gov.Admit(1); err == nil {
		t.Error("Expected denial before reset")
	}

	gov.Reset()

	for i := 0; i < 10; i++ {
		if err := gov.Admit(1); err != nil {
			t.Errorf("Post-reset call %d failed: %v", i+1, err)
		}
	}
}

// Test Case 12: Sliding Window Semantics
// Given: Burst of 10 at T=0
// When: Checking at T=60s and T=121s
// Then: Still blocked mid-window, free after the burst expires
func TestGovernor_SlidingWindow(t *testing.T) {
	clock := newMockClock(time.Now())
	gov := NewGovernorWithClock(10, 2*time.Minute, clock.Now)

	for i := 0; i < 10; i++ {
		if err := gov.Admit(1); err != nil {
			t.Fatalf("Burst call %d failed: %v", i+1, err)
		}
	}

	clock.Advance(60 * time.Second)
	if err := gov.Admit(1); err == nil {
		t.Error("Expected denial at 60s (still within window)")
	}

	clock.Advance(61 * time.Second)
	for i := 0; i < 10; i++ {
		if err := gov.Admit(1); err != nil {
			t.Errorf("Post-window call %d failed: %v", i+1, err)
		}
	}
}
