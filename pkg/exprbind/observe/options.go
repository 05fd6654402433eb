package observe

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observability"
)

// DefaultMaxCycles bounds the dirty-check cycles of one checkpoint.
const DefaultMaxCycles = 1000

// ErrorHandler is the error sink. It receives evaluation and callback
// failures, which never stop the observation loop.
type ErrorHandler func(err error)

// CheckpointHook runs after every checkpoint that re-evaluated at least one
// observer.
type CheckpointHook func(ctx context.Context, stats Stats)

// runtimeConfig holds Runtime configuration.
type runtimeConfig struct {
	evaluator  *expr.Evaluator
	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
	counter    Counter
	onError    ErrorHandler
	maxCycles  int
	afterHooks []CheckpointHook
}

// defaultRuntimeConfig returns the default configuration.
func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		logger:    slog.Default(),
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		counter:   nopCounter{},
		maxCycles: DefaultMaxCycles,
	}
}

// Option configures a Runtime.
type Option func(*runtimeConfig)

// WithEvaluator sets the evaluator observers use. Default: expr.New().
func WithEvaluator(e *expr.Evaluator) Option {
	return func(c *runtimeConfig) {
		c.evaluator = e
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *runtimeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables metrics recording.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *runtimeConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables a checkpoint span per checkpoint.
func WithTracing(sm observability.SpanManager) Option {
	return func(c *runtimeConfig) {
		if sm != nil {
			c.spans = sm
		}
	}
}

// WithCounter injects a handle that follows the number of open observers.
func WithCounter(counter Counter) Option {
	return func(c *runtimeConfig) {
		if counter != nil {
			c.counter = counter
		}
	}
}

// WithErrorHandler sets the error sink. By default errors are logged.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *runtimeConfig) {
		c.onError = h
	}
}

// WithMaxCycles sets the maximum dirty-check cycles per checkpoint.
// Default: 1000
//
// A checkpoint that exceeds it stops and reports ErrMaxCycles to the error
// sink. This guards against callbacks that keep changing what they observe.
func WithMaxCycles(n int) Option {
	return func(c *runtimeConfig) {
		if n > 0 {
			c.maxCycles = n
		}
	}
}

// WithCheckpointHook adds a function run after each checkpoint that
// re-evaluated something.
func WithCheckpointHook(h CheckpointHook) Option {
	return func(c *runtimeConfig) {
		if h != nil {
			c.afterHooks = append(c.afterHooks, h)
		}
	}
}
