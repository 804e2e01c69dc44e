// Package resilience provides resilience patterns for remote API calls.
//
// This package implements the building blocks that protect calls to a slow,
// unreliable, or rate-limited remote API. The patterns are partitioned by
// operation key, a stable identifier for a logical remote call such as
// "groups.getById", so that every operation tracks its own state
// independently of who is calling it.
//
// # Patterns
//
// The package provides the following resilience patterns:
//
//   - Circuit Breaker: Stops calling a failing dependency after a failure
//     threshold is reached, and probes for recovery through a half-open state.
//
//   - Rate Limiter: Bounds calls within a time window. Fixed window is the
//     default; sliding window and token bucket strategies are also available.
//
//   - Retry: Re-invokes failed attempts with exponential backoff, filtered by
//     error classification so permanent failures are never retried.
//
//   - Timeout: Bounds the wall-clock duration of a single attempt.
//
// # Error classification
//
// Remote errors carry a Kind (transient, permanent, or timeout) that drives
// retry decisions. Wrap transport errors with NewRemoteError at the call site:
//
//	return resilience.NewRemoteError("groups.getById", resilience.KindTransient, err)
//
// # Registry
//
// The Registry holds one breaker and one limiter per operation key, created
// lazily and never evicted. Snapshot returns a point-in-time view of every
// counter for dashboards and health checks:
//
//	reg := resilience.NewRegistry()
//	cb := reg.Breaker("groups.getById", resilience.CircuitBreakerConfig{
//	    FailureThreshold: 5,
//	    RecoveryTimeout:  30 * time.Second,
//	})
//	stats := reg.Snapshot()
//
// Higher-level composition of these patterns around a remote call lives in
// the pipeline package.
package resilience
