package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestSentinelIdentity(t *testing.T) {
	cases := []struct {
		name     string
		make     func() error
		sentinel error
		check    func(error) bool
	}{
		{"validation", func() error { return NewValidationError("spacing %d out of range", 200) }, ErrValidation, IsValidation},
		{"authentication", func() error { return NewAuthenticationError("missing API key") }, ErrAuthentication, IsAuthentication},
		{"platform", func() error { return NewPlatformInvalidError("account %s not connected", "acc_9") }, ErrPlatformInvalid, IsPlatformInvalid},
		{"submission", func() error { return NewSubmissionError("upstream rejected plan") }, ErrSubmission, nil},
		{"upstream", func() error { return NewUpstreamError("status 502") }, ErrUpstream, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.make()
			assert.True(t, Is(err, tc.sentinel))
			if tc.check != nil {
				assert.True(t, tc.check(err))
			}
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	err := NewValidationError("bad input")
	assert.False(t, Is(err, ErrAuthentication))
	assert.False(t, Is(err, ErrRateLimited))
	assert.False(t, IsRateLimited(err))
}

func TestRateLimitCarriesRetryAfter(t *testing.T) {
	err := NewRateLimitError(42 * time.Second)
	require.True(t, IsRateLimited(err))

	after, ok := RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 42*time.Second, after)
}

func TestRetryAfterSurvivesWrapping(t *testing.T) {
	err := NewRateLimitError(15 * time.Second)
	err = Wrap(err, "submitting plan")
	err = WithHint(err, "wait before retrying")

	require.True(t, IsRateLimited(err))
	after, ok := RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, after)
}

func TestRetryAfterAbsent(t *testing.T) {
	_, ok := RetryAfter(New("plain"))
	assert.False(t, ok)

	_, ok = RetryAfter(nil)
	assert.False(t, ok)
}

func TestWithRetryAfter(t *testing.T) {
	err := WithRetryAfter(Wrap(ErrUpstream, "503 from upstream"), 30*time.Second)
	after, ok := RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, after)
	assert.True(t, Is(err, ErrUpstream))

	assert.Nil(t, WithRetryAfter(nil, time.Second))
}

func TestUnknownOutcomeDistinctFromSubmission(t *testing.T) {
	err := Wrap(ErrUnknownOutcome, "request timed out during submit")
	assert.True(t, IsUnknownOutcome(err))
	assert.False(t, Is(err, ErrSubmission))
}

func TestHintsAndDetailsPreserved(t *testing.T) {
	err := NewValidationError("start_date required for daily pattern")
	err = WithHint(err, "provide start_date in ISO format")
	err = Wrap(err, "planning series")

	assert.True(t, IsValidation(err))
	hints := GetAllHints(err)
	assert.Contains(t, hints, "provide start_date in ISO format")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.False(t, IsValidation(nil))
	assert.False(t, IsRateLimited(nil))
}

func ExampleNewValidationError() {
	err := NewValidationError("spacing must be 1-168 hours (got %d)", 200)
	fmt.Println(IsValidation(err))
	// Output: true
}
