// Package errors provides error handling for syndic.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//   - User-facing hints and details
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "try increasing the timeout")
//
//	// Check errors
//	if errors.Is(err, errors.ErrRateLimited) {
//	    // back off and retry
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"time"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSafeDetails    = crdb.WithSafeDetails
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Mark           = crdb.Mark
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Advanced features
var (
	Handled            = crdb.Handled
	HandledWithMessage = crdb.HandledWithMessage
	WithDomain         = crdb.WithDomain
	GetDomain          = crdb.GetDomain
	AssertionFailedf   = crdb.AssertionFailedf
)

// Sentinel errors for the scheduling and job-tracking engine.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrValidation indicates bad input shape or range, caught before any
	// upstream call. Validation failures never consume rate budget.
	ErrValidation = New("validation failed")

	// ErrAuthentication indicates missing or invalid API credentials
	ErrAuthentication = New("authentication failed")

	// ErrWorkspaceRequired indicates a workspace-scoped call was made
	// without a workspace identifier
	ErrWorkspaceRequired = New("workspace required")

	// ErrRateLimited indicates the upstream quota was or would be exceeded.
	// Retryable; carries a backoff hint recoverable via RetryAfter.
	ErrRateLimited = New("rate limited")

	// ErrPlatformInvalid indicates a target account id is not connected
	// or not active in the workspace
	ErrPlatformInvalid = New("platform invalid")

	// ErrSubmission indicates the upstream rejected all or part of a plan
	ErrSubmission = New("submission failed")

	// ErrUnknownOutcome indicates a timeout during submission. The outcome
	// is ambiguous: the job may or may not have been accepted. Callers must
	// check job status rather than resubmit.
	ErrUnknownOutcome = New("submission outcome unknown")

	// ErrUpstream indicates an unexpected upstream failure (5xx-equivalent)
	ErrUpstream = New("upstream error")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")
)

// IsValidation checks if an error is or wraps ErrValidation
func IsValidation(err error) bool {
	return err != nil && Is(err, ErrValidation)
}

// IsAuthentication checks if an error is or wraps ErrAuthentication
func IsAuthentication(err error) bool {
	return err != nil && Is(err, ErrAuthentication)
}

// IsWorkspaceRequired checks if an error is or wraps ErrWorkspaceRequired
func IsWorkspaceRequired(err error) bool {
	return err != nil && Is(err, ErrWorkspaceRequired)
}

// IsRateLimited checks if an error is or wraps ErrRateLimited
func IsRateLimited(err error) bool {
	return err != nil && Is(err, ErrRateLimited)
}

// IsPlatformInvalid checks if an error is or wraps ErrPlatformInvalid
func IsPlatformInvalid(err error) bool {
	return err != nil && Is(err, ErrPlatformInvalid)
}

// IsUnknownOutcome checks if an error is or wraps ErrUnknownOutcome
func IsUnknownOutcome(err error) bool {
	return err != nil && Is(err, ErrUnknownOutcome)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...interface{}) error {
	return Wrap(ErrValidation, Newf(format, args...).Error())
}

// WrapValidation wraps an error as a validation error with context
func WrapValidation(err error, context string) error {
	return Wrap(Wrap(ErrValidation, err.Error()), context)
}

// NewAuthenticationError creates an authentication error with a formatted message
func NewAuthenticationError(format string, args ...interface{}) error {
	return Wrap(ErrAuthentication, Newf(format, args...).Error())
}

// NewPlatformInvalidError creates a platform-invalid error with a formatted message
func NewPlatformInvalidError(format string, args ...interface{}) error {
	return Wrap(ErrPlatformInvalid, Newf(format, args...).Error())
}

// NewSubmissionError creates a submission error with a formatted message
func NewSubmissionError(format string, args ...interface{}) error {
	return Wrap(ErrSubmission, Newf(format, args...).Error())
}

// NewUpstreamError creates an upstream error with a formatted message
func NewUpstreamError(format string, args ...interface{}) error {
	return Wrap(ErrUpstream, Newf(format, args...).Error())
}

// retryAfterMarker carries a machine-readable backoff duration through an
// error chain. Recovered with RetryAfter.
type retryAfterMarker struct {
	cause error
	after time.Duration
}

func (m *retryAfterMarker) Error() string { return m.cause.Error() }
func (m *retryAfterMarker) Unwrap() error { return m.cause }

// NewRateLimitError creates a rate-limit error carrying the suggested
// backoff. The duration is recoverable with RetryAfter.
func NewRateLimitError(after time.Duration) error {
	err := WithDetailf(ErrRateLimited, "retry after %s", after)
	return &retryAfterMarker{cause: err, after: after}
}

// WithRetryAfter attaches a backoff duration to an existing error
func WithRetryAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &retryAfterMarker{cause: err, after: after}
}

// RetryAfter extracts the backoff duration attached to an error chain.
// Returns zero and false when none is present.
func RetryAfter(err error) (time.Duration, bool) {
	var m *retryAfterMarker
	if As(err, &m) {
		return m.after, true
	}
	return 0, false
}
