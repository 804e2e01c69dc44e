// Package observe provides telemetry for the call pipeline: structured JSON
// logging, OpenTelemetry metrics, and OpenTelemetry tracing.
//
// The Observer bundles all three behind one configuration:
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "social-graph-client",
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Tracing:     observe.TracingConfig{Enabled: true, Exporter: "otlp", SamplePct: 0.1},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//
// Each subsystem can also be used standalone: NewLogger, NewMetrics (from any
// otel meter), and NewTracer (from any otel tracer). Noop variants exist for
// all three so callers never need nil checks.
//
// Log fields with secret-bearing keys (token, api_key, password, ...) are
// redacted automatically.
package observe
