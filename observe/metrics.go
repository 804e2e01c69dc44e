package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records outcomes of pipeline calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records a completed call with its duration and error status.
	RecordCall(ctx context.Context, op string, duration time.Duration, err error)

	// RecordCacheHit records a call served from the cache.
	RecordCacheHit(ctx context.Context, op string)

	// RecordRejection records a call rejected before reaching the remote side.
	// Reason is "rate_limit" or "circuit_open".
	RecordRejection(ctx context.Context, op string, reason string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter         metric.Meter
	totalCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	durationHist  metric.Float64Histogram
	cacheHitCount metric.Int64Counter
	rejectedCount metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"call.exec.total",
		metric.WithDescription("Total number of remote calls attempted"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"call.exec.errors",
		metric.WithDescription("Total number of remote call failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"call.exec.duration_ms",
		metric.WithDescription("Remote call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHitCount, err := meter.Int64Counter(
		"call.cache.hits",
		metric.WithDescription("Calls served from the result cache"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	rejectedCount, err := meter.Int64Counter(
		"call.rejected",
		metric.WithDescription("Calls rejected by rate limiter or circuit breaker"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:         meter,
		totalCount:    totalCount,
		errorCount:    errorCount,
		durationHist:  durationHist,
		cacheHitCount: cacheHitCount,
		rejectedCount: rejectedCount,
	}, nil
}

// RecordCall records metrics for a completed call.
func (m *metricsImpl) RecordCall(ctx context.Context, op string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("call.op", op))

	m.totalCount.Add(ctx, 1, opt)

	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordCacheHit records a cache-served call.
func (m *metricsImpl) RecordCacheHit(ctx context.Context, op string) {
	m.cacheHitCount.Add(ctx, 1, metric.WithAttributes(attribute.String("call.op", op)))
}

// RecordRejection records a fail-fast rejection.
func (m *metricsImpl) RecordRejection(ctx context.Context, op string, reason string) {
	m.rejectedCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("call.op", op),
		attribute.String("call.reject_reason", reason),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, op string, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordCacheHit(ctx context.Context, op string)            {}
func (m *noopMetrics) RecordRejection(ctx context.Context, op string, r string) {}

// NewNoopMetrics returns a metrics recorder that discards everything.
func NewNoopMetrics() Metrics {
	return &noopMetrics{}
}
