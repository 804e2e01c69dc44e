package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	// Default: 1s
	BaseDelay time.Duration

	// BackoffFactor multiplies the delay after each attempt.
	// Default: 2.0
	BackoffFactor float64

	// MaxDelay caps the delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Jitter adds up to 25% randomness to delays to prevent thundering herd.
	// Default: false
	Jitter bool

	// RetryIf determines if an error should trigger a retry.
	// Default: IsRetryable (transient and timeout errors retry, permanent
	// errors and validation errors do not).
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-invokes a failed attempt a bounded number of times with
// exponential backoff. The backoff sleep is the only blocking point besides
// the attempt itself, and it honors context cancellation.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.BackoffFactor <= 0 {
		config.BackoffFactor = 2.0
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.RetryIf == nil {
		config.RetryIf = IsRetryable
	}

	return &Retry{config: config}
}

// Execute runs the operation with retry logic. A non-retryable error, or the
// last error after attempts are exhausted, propagates to the caller unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)

		if err == nil {
			return nil
		}

		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}

		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.calculateDelay(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			// Continue to next attempt
		}
	}

	return lastErr
}

func (r *Retry) calculateDelay(attempt int) time.Duration {
	multiplier := math.Pow(r.config.BackoffFactor, float64(attempt-1))
	delay := time.Duration(float64(r.config.BaseDelay) * multiplier)

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if quarter := delay / 4; r.config.Jitter && quarter > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(quarter)))
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
