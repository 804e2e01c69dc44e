// Package pipeline composes the resilience patterns around a remote call.
//
// A Pipeline wraps a caller-supplied invocation in a fixed order: result
// cache (a fresh hit short-circuits everything), rate limiter admission,
// circuit breaker admission, then retry with each attempt bounded by the
// breaker's call timeout. All state is partitioned by operation key and
// shared across concurrent callers of the same operation.
//
//	p := pipeline.New(
//	    pipeline.WithCircuitBreaker(resilience.CircuitBreakerConfig{
//	        FailureThreshold: 5,
//	        RecoveryTimeout:  30 * time.Second,
//	        CallTimeout:      5 * time.Second,
//	    }),
//	    pipeline.WithRateLimiter(resilience.RateLimiterConfig{
//	        MaxCalls: 20,
//	        Window:   time.Second,
//	    }),
//	    pipeline.WithRetry(resilience.RetryConfig{MaxAttempts: 3, BackoffFactor: 2.0}),
//	    pipeline.WithCache(cache.NewMemoryCache()),
//	)
//
//	result, err := p.Do(ctx, pipeline.Operation{
//	    Key:      "groups.getById",
//	    Params:   map[string]any{"group_id": 42},
//	    CacheTTL: 5 * time.Minute,
//	    Invoke: func(ctx context.Context) ([]byte, error) {
//	        return client.GetGroup(ctx, 42)
//	    },
//	})
//
// Fail-fast rejections surface as resilience.ErrRateLimitExceeded and
// resilience.ErrCircuitOpen; callers can branch on them with errors.Is. The
// per-operation counters behind every decision are exposed through Stats and
// the StatsHandler HTTP endpoint.
package pipeline
