package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/callguard/cache"
	"github.com/jonwraymond/callguard/observe"
	"github.com/jonwraymond/callguard/resilience"
)

// Operation describes one invocation of a remote operation.
type Operation struct {
	// Key identifies the logical remote operation (e.g. "groups.getById").
	// All resilience state is partitioned by this key. Required.
	Key string

	// Params are the call parameters, used only for cache key composition.
	Params any

	// CacheKey overrides the derived cache key. Optional; when empty the key
	// is derived from Key and Params via the configured Keyer.
	CacheKey string

	// CacheTTL is how long a successful result stays cached. Zero disables
	// caching for this call.
	CacheTTL time.Duration

	// Invoke performs the remote call. Required. Errors should be wrapped
	// with resilience.NewRemoteError so retry decisions see their
	// classification; unwrapped errors are treated as transient.
	Invoke func(ctx context.Context) ([]byte, error)
}

// Pipeline composes the resilience patterns around a remote invocation in a
// fixed order: cache, rate limiter, circuit breaker, then retry with each
// attempt under the timeout guard. Building the order into one object keeps
// every call site consistent.
type Pipeline struct {
	registry   *resilience.Registry
	breakerCfg resilience.CircuitBreakerConfig
	limiterCfg resilience.RateLimiterConfig
	retry      *resilience.Retry
	cache      cache.Cache
	keyer      cache.Keyer
	logger     observe.Logger
	metrics    observe.Metrics
	tracer     observe.Tracer
	group      *singleflight.Group
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	registry     *resilience.Registry
	breakerCfg   resilience.CircuitBreakerConfig
	limiterCfg   resilience.RateLimiterConfig
	retryCfg     resilience.RetryConfig
	cache        cache.Cache
	keyer        cache.Keyer
	logger       observe.Logger
	metrics      observe.Metrics
	tracer       observe.Tracer
	singleflight bool
}

// WithCircuitBreaker sets the circuit breaker configuration bound to each
// operation on first use.
func WithCircuitBreaker(cfg resilience.CircuitBreakerConfig) Option {
	return func(o *options) { o.breakerCfg = cfg }
}

// WithRateLimiter sets the rate limiter configuration bound to each operation
// on first use.
func WithRateLimiter(cfg resilience.RateLimiterConfig) Option {
	return func(o *options) { o.limiterCfg = cfg }
}

// WithRetry sets the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(o *options) { o.retryCfg = cfg }
}

// WithCache enables result caching on the given store.
func WithCache(c cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithKeyer sets the cache key composer. Default: cache.DefaultKeyer.
func WithKeyer(k cache.Keyer) Option {
	return func(o *options) { o.keyer = k }
}

// WithLogger sets the outcome logger.
func WithLogger(l observe.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer sets the span tracer.
func WithTracer(t observe.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithRegistry shares a stats registry between pipelines. Default: each
// pipeline owns a fresh registry.
func WithRegistry(r *resilience.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithSingleflight collapses concurrent cache-miss calls that share a cache
// key into a single remote invocation.
func WithSingleflight() Option {
	return func(o *options) { o.singleflight = true }
}

// New creates a pipeline.
func New(opts ...Option) *Pipeline {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.registry == nil {
		o.registry = resilience.NewRegistry()
	}
	if o.keyer == nil {
		o.keyer = cache.NewDefaultKeyer()
	}
	if o.logger == nil {
		o.logger = observe.NewNoopLogger()
	}
	if o.metrics == nil {
		o.metrics = observe.NewNoopMetrics()
	}
	if o.tracer == nil {
		o.tracer = observe.NewNoopTracer()
	}

	p := &Pipeline{
		registry:   o.registry,
		breakerCfg: o.breakerCfg,
		limiterCfg: o.limiterCfg,
		retry:      resilience.NewRetry(o.retryCfg),
		cache:      o.cache,
		keyer:      o.keyer,
		logger:     o.logger,
		metrics:    o.metrics,
		tracer:     o.tracer,
	}
	if o.singleflight {
		p.group = &singleflight.Group{}
	}
	return p
}

// Do runs one invocation through the pipeline.
//
// Order: validate, cache lookup (hit short-circuits everything), rate limiter
// admission, circuit breaker admission, then retry with each attempt under
// the breaker's call timeout. A success records one breaker success and
// populates the cache; an exhausted failure records exactly one breaker
// failure and surfaces the last error unchanged.
func (p *Pipeline) Do(ctx context.Context, op Operation) ([]byte, error) {
	if op.Key == "" {
		return nil, &resilience.ValidationError{Field: "operation key", Reason: "must not be empty"}
	}
	if op.Invoke == nil {
		return nil, &resilience.ValidationError{Field: "invoke function", Reason: "must not be nil"}
	}

	ctx, span := p.tracer.StartSpan(ctx, op.Key)
	result, err := p.do(ctx, op)
	p.tracer.EndSpan(span, err)
	return result, err
}

func (p *Pipeline) do(ctx context.Context, op Operation) ([]byte, error) {
	key := p.cacheKey(op)

	if p.cache != nil && key != "" {
		if cached, ok := p.cache.Get(ctx, key); ok {
			p.metrics.RecordCacheHit(ctx, op.Key)
			p.logger.Debug(ctx, "call served from cache",
				observe.Field{Key: "call.op", Value: op.Key})
			return cached, nil
		}
	}

	if p.group != nil && key != "" {
		v, err, _ := p.group.Do(key, func() (any, error) {
			return p.call(ctx, op, key)
		})
		b, _ := v.([]byte)
		return b, err
	}

	return p.call(ctx, op, key)
}

// call runs the admission checks and the guarded remote invocation.
func (p *Pipeline) call(ctx context.Context, op Operation, key string) ([]byte, error) {
	limiter := p.registry.Limiter(op.Key, p.limiterCfg)
	if !limiter.Allow() {
		p.metrics.RecordRejection(ctx, op.Key, "rate_limit")
		p.logger.Warn(ctx, "call rejected by rate limiter",
			observe.Field{Key: "call.op", Value: op.Key})
		return nil, resilience.ErrRateLimitExceeded
	}

	breaker := p.registry.Breaker(op.Key, p.breakerCfg)
	if err := breaker.Admit(); err != nil {
		p.metrics.RecordRejection(ctx, op.Key, "circuit_open")
		p.logger.Warn(ctx, "call rejected by circuit breaker",
			observe.Field{Key: "call.op", Value: op.Key})
		return nil, err
	}

	guard := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: breaker.CallTimeout()})

	start := time.Now()
	var result []byte
	err := p.retry.Execute(ctx, func(ctx context.Context) error {
		// Each attempt writes its own variable. A timed-out attempt's
		// goroutine may still be running when the next attempt starts; its
		// write lands in the abandoned variable, never in result.
		var attempt []byte
		guardErr := guard.Execute(ctx, func(ctx context.Context) error {
			b, err := op.Invoke(ctx)
			if err != nil {
				return err
			}
			attempt = b
			return nil
		})
		if guardErr != nil {
			return guardErr
		}
		result = attempt
		return nil
	})
	latency := time.Since(start)

	p.metrics.RecordCall(ctx, op.Key, latency, err)

	if err != nil {
		breaker.RecordFailure()
		p.logger.Error(ctx, "call failed",
			observe.Field{Key: "call.op", Value: op.Key},
			observe.Field{Key: "latency_ms", Value: latency.Milliseconds()},
			observe.Field{Key: "success", Value: false},
			observe.Field{Key: "error", Value: err.Error()})
		return nil, err
	}

	breaker.RecordSuccess()

	if p.cache != nil && key != "" && op.CacheTTL > 0 {
		_ = p.cache.Set(ctx, key, result, op.CacheTTL)
	}

	p.logger.Info(ctx, "call succeeded",
		observe.Field{Key: "call.op", Value: op.Key},
		observe.Field{Key: "latency_ms", Value: latency.Milliseconds()},
		observe.Field{Key: "success", Value: true})

	return result, nil
}

// cacheKey composes the cache key for an operation, or "" when the call is
// uncacheable.
func (p *Pipeline) cacheKey(op Operation) string {
	if op.CacheTTL <= 0 {
		return ""
	}
	if op.CacheKey != "" {
		return op.CacheKey
	}
	key, err := p.keyer.Key(op.Key, op.Params)
	if err != nil {
		// Key composition failed - run the call without caching
		return ""
	}
	return key
}

// Stats returns a point-in-time snapshot of all per-operation resilience
// state for dashboards and health checks.
func (p *Pipeline) Stats() resilience.Stats {
	return p.registry.Snapshot()
}

// Registry returns the underlying stats registry.
func (p *Pipeline) Registry() *resilience.Registry {
	return p.registry
}
