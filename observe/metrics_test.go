package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func TestMetrics_TotalCounterIncrements(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCall(context.Background(), "groups.getById", 100*time.Millisecond, nil)

	rm := collect(t, reader)
	found := findMetric(rm, "call.exec.total")
	if found == nil {
		t.Fatal("call.exec.total metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("expected count 1, got %d", sum.DataPoints[0].Value)
	}

	op, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("call.op"))
	if !ok || op.AsString() != "groups.getById" {
		t.Errorf("expected call.op=groups.getById attribute, got %v", op)
	}
}

func TestMetrics_ErrorCounterOnSuccess(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCall(context.Background(), "groups.getById", 50*time.Millisecond, nil)

	rm := collect(t, reader)
	found := findMetric(rm, "call.exec.errors")
	if found == nil {
		// No errors recorded means the metric may not exist at all
		return
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	for _, dp := range sum.DataPoints {
		if dp.Value != 0 {
			t.Errorf("expected no error counts, got %d", dp.Value)
		}
	}
}

func TestMetrics_ErrorCounterOnFailure(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCall(context.Background(), "groups.getById", 50*time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)
	found := findMetric(rm, "call.exec.errors")
	if found == nil {
		t.Fatal("call.exec.errors metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("expected error count 1, got %d", sum.DataPoints[0].Value)
	}
}

func TestMetrics_DurationHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCall(context.Background(), "groups.getById", 250*time.Millisecond, nil)

	rm := collect(t, reader)
	found := findMetric(rm, "call.exec.duration_ms")
	if found == nil {
		t.Fatal("call.exec.duration_ms metric not found")
	}

	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if hist.DataPoints[0].Sum != 250 {
		t.Errorf("expected sum 250, got %f", hist.DataPoints[0].Sum)
	}
}

func TestMetrics_CacheHit(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCacheHit(context.Background(), "groups.getById")
	m.RecordCacheHit(context.Background(), "groups.getById")

	rm := collect(t, reader)
	found := findMetric(rm, "call.cache.hits")
	if found == nil {
		t.Fatal("call.cache.hits metric not found")
	}

	sum := found.Data.(metricdata.Sum[int64])
	if sum.DataPoints[0].Value != 2 {
		t.Errorf("expected count 2, got %d", sum.DataPoints[0].Value)
	}
}

func TestMetrics_RejectionReason(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordRejection(context.Background(), "groups.getById", "circuit_open")

	rm := collect(t, reader)
	found := findMetric(rm, "call.rejected")
	if found == nil {
		t.Fatal("call.rejected metric not found")
	}

	sum := found.Data.(metricdata.Sum[int64])
	reason, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("call.reject_reason"))
	if !ok || reason.AsString() != "circuit_open" {
		t.Errorf("expected call.reject_reason=circuit_open, got %v", reason)
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()

	// Must not panic
	m.RecordCall(context.Background(), "op", time.Second, errors.New("x"))
	m.RecordCacheHit(context.Background(), "op")
	m.RecordRejection(context.Background(), "op", "rate_limit")
}
