package resilience

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Strategy selects the rate limiting algorithm.
type Strategy int

const (
	// StrategyFixedWindow resets the call counter at fixed time boundaries.
	// A burst exactly at window rollover may admit up to MaxCalls in the new
	// window; this imprecision is the accepted cost of fixed-window limiting.
	StrategyFixedWindow Strategy = iota
	// StrategySlidingWindow counts calls over a continuously moving window.
	StrategySlidingWindow
	// StrategyTokenBucket refills permits continuously at MaxCalls per Window.
	StrategyTokenBucket
)

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyFixedWindow:
		return "fixed-window"
	case StrategySlidingWindow:
		return "sliding-window"
	case StrategyTokenBucket:
		return "token-bucket"
	default:
		return "unknown"
	}
}

// RateLimiterConfig configures a rate limiter for one operation.
type RateLimiterConfig struct {
	// MaxCalls is the number of calls admitted per window.
	// Default: 100
	MaxCalls int

	// Window is the time window over which MaxCalls applies.
	// Default: 1 second
	Window time.Duration

	// Strategy selects the limiting algorithm.
	// Default: StrategyFixedWindow
	Strategy Strategy
}

// RateLimiter is per-operation admission control. Allow never blocks; a
// rejected call must fail fast without reaching the remote side.
type RateLimiter interface {
	// Allow reports whether one call is admitted under the rate limit.
	Allow() bool

	// Stats returns a snapshot of the limiter counters.
	Stats() RateLimiterStats
}

// RateLimiterStats contains rate limiter statistics for one operation.
type RateLimiterStats struct {
	CallsInWindow int       `json:"calls_in_window"`
	WindowStart   time.Time `json:"window_start"`
	TotalCalls    uint64    `json:"total_calls"`
	TotalRejected uint64    `json:"total_rejected"`
}

// NewRateLimiter creates a rate limiter using the configured strategy.
func NewRateLimiter(config RateLimiterConfig) RateLimiter {
	// Apply defaults
	if config.MaxCalls <= 0 {
		config.MaxCalls = 100
	}
	if config.Window <= 0 {
		config.Window = time.Second
	}

	switch config.Strategy {
	case StrategySlidingWindow:
		return &slidingWindowLimiter{
			config: config,
			now:    time.Now,
		}
	case StrategyTokenBucket:
		return &tokenBucketLimiter{
			config:  config,
			start:   time.Now(),
			limiter: rate.NewLimiter(rate.Limit(float64(config.MaxCalls)/config.Window.Seconds()), config.MaxCalls),
		}
	default:
		return &fixedWindowLimiter{
			config:      config,
			now:         time.Now,
			windowStart: time.Now(),
		}
	}
}

// fixedWindowLimiter admits up to MaxCalls per fixed window. The window reset
// is lazy: it happens on the first admission check past the boundary, not via
// a background timer.
type fixedWindowLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu            sync.Mutex
	callsInWindow int
	windowStart   time.Time
	totalCalls    uint64
	totalRejected uint64
}

func (l *fixedWindowLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.windowStart) >= l.config.Window {
		l.callsInWindow = 0
		l.windowStart = now
	}

	l.totalCalls++
	if l.callsInWindow < l.config.MaxCalls {
		l.callsInWindow++
		return true
	}

	l.totalRejected++
	return false
}

func (l *fixedWindowLimiter) Stats() RateLimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return RateLimiterStats{
		CallsInWindow: l.callsInWindow,
		WindowStart:   l.windowStart,
		TotalCalls:    l.totalCalls,
		TotalRejected: l.totalRejected,
	}
}

// slidingWindowLimiter admits calls whose count over the trailing window stays
// within MaxCalls. Admission timestamps outside the window are pruned lazily.
type slidingWindowLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu            sync.Mutex
	admitted      []time.Time
	totalCalls    uint64
	totalRejected uint64
}

func (l *slidingWindowLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	l.totalCalls++
	if len(l.admitted) < l.config.MaxCalls {
		l.admitted = append(l.admitted, now)
		return true
	}

	l.totalRejected++
	return false
}

func (l *slidingWindowLimiter) Stats() RateLimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	stats := RateLimiterStats{
		CallsInWindow: len(l.admitted),
		WindowStart:   now.Add(-l.config.Window),
		TotalCalls:    l.totalCalls,
		TotalRejected: l.totalRejected,
	}
	if len(l.admitted) > 0 {
		stats.WindowStart = l.admitted[0]
	}
	return stats
}

func (l *slidingWindowLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.config.Window)
	i := 0
	for i < len(l.admitted) && !l.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}

// tokenBucketLimiter refills permits continuously at MaxCalls per Window with
// a burst of MaxCalls, backed by golang.org/x/time/rate. CallsInWindow reports
// the permits currently consumed from the bucket.
type tokenBucketLimiter struct {
	config  RateLimiterConfig
	start   time.Time
	limiter *rate.Limiter

	mu            sync.Mutex
	totalCalls    uint64
	totalRejected uint64
}

func (l *tokenBucketLimiter) Allow() bool {
	ok := l.limiter.Allow()

	l.mu.Lock()
	l.totalCalls++
	if !ok {
		l.totalRejected++
	}
	l.mu.Unlock()

	return ok
}

func (l *tokenBucketLimiter) Stats() RateLimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	consumed := float64(l.config.MaxCalls) - l.limiter.Tokens()
	if consumed < 0 {
		consumed = 0
	}

	return RateLimiterStats{
		CallsInWindow: int(consumed),
		WindowStart:   l.start,
		TotalCalls:    l.totalCalls,
		TotalRejected: l.totalRejected,
	}
}

// Ensure all strategies implement RateLimiter
var (
	_ RateLimiter = (*fixedWindowLimiter)(nil)
	_ RateLimiter = (*slidingWindowLimiter)(nil)
	_ RateLimiter = (*tokenBucketLimiter)(nil)
)
