package pipeline

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jonwraymond/callguard/resilience"
)

// StatsResponse is the JSON response for the resilience stats endpoint.
type StatsResponse struct {
	Timestamp       string                                    `json:"timestamp"`
	CircuitBreakers map[string]resilience.CircuitBreakerStats `json:"circuit_breakers"`
	RateLimiters    map[string]resilience.RateLimiterStats    `json:"rate_limiters"`
}

// StatsHandler returns an HTTP handler exposing a point-in-time snapshot of
// every operation's breaker and limiter counters, for dashboards and health
// checks.
func StatsHandler(reg *resilience.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := reg.Snapshot()

		response := StatsResponse{
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
			CircuitBreakers: snapshot.CircuitBreakers,
			RateLimiters:    snapshot.RateLimiters,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			// Response already started, nothing sensible to do
			return
		}
	}
}

// HealthHandler returns an HTTP handler that reports degraded when any
// operation's circuit is open. Useful as a coarse readiness signal: an open
// circuit means the downstream dependency is failing.
func HealthHandler(reg *resilience.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := reg.Snapshot()

		open := 0
		for _, stats := range snapshot.CircuitBreakers {
			if stats.State == resilience.StateOpen {
				open++
			}
		}

		w.Header().Set("Content-Type", "text/plain")
		if open > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("DEGRADED"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
