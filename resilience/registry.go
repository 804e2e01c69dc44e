package resilience

import "sync"

// Registry holds per-operation breakers and limiters, keyed by operation key.
// Entries are created lazily on first use and live for the process lifetime;
// cardinality is bounded by the number of distinct operations, not calls.
// Two operations never contend on the same lock: the registry lock covers
// only map access, each breaker and limiter guards its own state.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	limiters map[string]RateLimiter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		limiters: make(map[string]RateLimiter),
	}
}

// Breaker returns the circuit breaker for the operation key, creating it with
// config on first use. The config binds once; later calls ignore it.
func (r *Registry) Breaker(op string, config CircuitBreakerConfig) *CircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[op]
	r.mu.RUnlock()

	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock
	if cb, ok := r.breakers[op]; ok {
		return cb
	}

	cb = NewCircuitBreaker(config)
	r.breakers[op] = cb
	return cb
}

// Limiter returns the rate limiter for the operation key, creating it with
// config on first use. The config binds once; later calls ignore it.
func (r *Registry) Limiter(op string, config RateLimiterConfig) RateLimiter {
	r.mu.RLock()
	rl, ok := r.limiters[op]
	r.mu.RUnlock()

	if ok {
		return rl
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rl, ok := r.limiters[op]; ok {
		return rl
	}

	rl = NewRateLimiter(config)
	r.limiters[op] = rl
	return rl
}

// Stats is a point-in-time snapshot of all per-operation resilience state.
// Each entry is internally consistent; entries are captured one at a time, so
// the snapshot as a whole is eventually consistent across operations.
type Stats struct {
	CircuitBreakers map[string]CircuitBreakerStats `json:"circuit_breakers"`
	RateLimiters    map[string]RateLimiterStats    `json:"rate_limiters"`
}

// Snapshot captures the stats of every registered breaker and limiter.
func (r *Registry) Snapshot() Stats {
	r.mu.RLock()
	breakers := make(map[string]*CircuitBreaker, len(r.breakers))
	for op, cb := range r.breakers {
		breakers[op] = cb
	}
	limiters := make(map[string]RateLimiter, len(r.limiters))
	for op, rl := range r.limiters {
		limiters[op] = rl
	}
	r.mu.RUnlock()

	stats := Stats{
		CircuitBreakers: make(map[string]CircuitBreakerStats, len(breakers)),
		RateLimiters:    make(map[string]RateLimiterStats, len(limiters)),
	}
	for op, cb := range breakers {
		stats.CircuitBreakers[op] = cb.Stats()
	}
	for op, rl := range limiters {
		stats.RateLimiters[op] = rl.Stats()
	}
	return stats
}
