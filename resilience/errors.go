package resilience

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker rejects an admission.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when the rate limiter rejects an admission.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrTimeout is returned when a single attempt exceeds its call timeout.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// Kind classifies a remote call error for retry decisions.
type Kind int

const (
	// KindTransient marks errors that may succeed on retry (network blips,
	// HTTP 5xx, throttling by the remote side).
	KindTransient Kind = iota
	// KindPermanent marks errors that will not succeed on retry (bad request,
	// missing entity, auth failure at the remote side).
	KindPermanent
	// KindTimeout marks attempts abandoned by the timeout guard.
	KindTimeout
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// RemoteError wraps an error from the underlying transport or API and carries
// its retryability classification.
type RemoteError struct {
	// Op is the operation key the call was made under.
	Op string
	// Kind is the retryability classification.
	Kind Kind
	// Err is the underlying transport or API error.
	Err error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("resilience: remote call %s failed (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError wraps err with an operation key and classification.
func NewRemoteError(op string, kind Kind, err error) *RemoteError {
	return &RemoteError{Op: op, Kind: kind, Err: err}
}

// ValidationError reports malformed input to the pipeline itself. It is never
// retried and never affects breaker or limiter state.
type ValidationError struct {
	// Field is the offending input field.
	Field string
	// Reason describes why the input was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("resilience: invalid %s: %s", e.Field, e.Reason)
}

// Classify returns the retryability kind of an error. Timeouts (including
// context deadlines) classify as KindTimeout, explicitly classified remote
// errors keep their kind, and everything else defaults to KindTransient.
func Classify(err error) Kind {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindTransient
}

// IsRetryable reports whether err should be retried. Validation errors,
// permanent remote errors, and fail-fast rejections are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrRateLimitExceeded) {
		return false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return false
	}
	return Classify(err) != KindPermanent
}
