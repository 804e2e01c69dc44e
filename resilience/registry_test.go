package resilience

import (
	"sync"
	"testing"
	"time"
)

func TestRegistry_LazyCreation(t *testing.T) {
	reg := NewRegistry()

	cfg := CircuitBreakerConfig{FailureThreshold: 2}

	cb1 := reg.Breaker("groups.getById", cfg)
	cb2 := reg.Breaker("groups.getById", cfg)

	if cb1 != cb2 {
		t.Error("Breaker() should return the same instance for the same operation key")
	}
}

func TestRegistry_PartitionsByOperation(t *testing.T) {
	reg := NewRegistry()

	cfg := CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour}

	cb1 := reg.Breaker("groups.getById", cfg)
	cb2 := reg.Breaker("users.search", cfg)

	cb1.RecordFailure()

	if cb1.State() != StateOpen {
		t.Errorf("groups.getById state = %v, want open", cb1.State())
	}
	if cb2.State() != StateClosed {
		t.Errorf("users.search state = %v, want closed (operations are independent)", cb2.State())
	}
}

func TestRegistry_ConfigBindsOnce(t *testing.T) {
	reg := NewRegistry()

	cb := reg.Breaker("op", CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	cb.RecordFailure()

	// A different config on a later call does not replace the entry
	cb2 := reg.Breaker("op", CircuitBreakerConfig{FailureThreshold: 100})
	if cb2.State() != StateOpen {
		t.Errorf("State = %v, want open (first config should stick)", cb2.State())
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	reg := NewRegistry()

	cb := reg.Breaker("groups.getById", CircuitBreakerConfig{FailureThreshold: 5})
	_ = cb.Admit()
	cb.RecordFailure()

	rl := reg.Limiter("groups.getById", RateLimiterConfig{MaxCalls: 10, Window: time.Second})
	rl.Allow()

	stats := reg.Snapshot()

	cbStats, ok := stats.CircuitBreakers["groups.getById"]
	if !ok {
		t.Fatal("Snapshot missing circuit breaker for groups.getById")
	}
	if cbStats.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", cbStats.TotalRequests)
	}
	if cbStats.TotalFailures != 1 {
		t.Errorf("TotalFailures = %d, want 1", cbStats.TotalFailures)
	}

	rlStats, ok := stats.RateLimiters["groups.getById"]
	if !ok {
		t.Fatal("Snapshot missing rate limiter for groups.getById")
	}
	if rlStats.TotalCalls != 1 {
		t.Errorf("TotalCalls = %d, want 1", rlStats.TotalCalls)
	}
}

func TestRegistry_SnapshotEmpty(t *testing.T) {
	reg := NewRegistry()

	stats := reg.Snapshot()

	if len(stats.CircuitBreakers) != 0 || len(stats.RateLimiters) != 0 {
		t.Error("Snapshot of empty registry should have no entries")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	cfg := CircuitBreakerConfig{FailureThreshold: 1000}
	lcfg := RateLimiterConfig{MaxCalls: 100000, Window: time.Hour}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cb := reg.Breaker("op", cfg)
			_ = cb.Admit()
			cb.RecordSuccess()
			reg.Limiter("op", lcfg).Allow()
			_ = reg.Snapshot()
		}()
	}
	wg.Wait()

	stats := reg.Snapshot()
	if stats.CircuitBreakers["op"].TotalRequests != 50 {
		t.Errorf("TotalRequests = %d, want 50", stats.CircuitBreakers["op"].TotalRequests)
	}
	if stats.RateLimiters["op"].TotalCalls != 50 {
		t.Errorf("TotalCalls = %d, want 50", stats.RateLimiters["op"].TotalCalls)
	}
}
