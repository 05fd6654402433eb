package exprbind

import (
	"log/slog"

	"github.com/randalmurphal/exprbind/pkg/exprbind/config"
	"github.com/randalmurphal/exprbind/pkg/exprbind/filter"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observability"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observe"
	"github.com/randalmurphal/exprbind/pkg/exprbind/template"
)

// delegateConfig holds Delegate configuration.
type delegateConfig struct {
	registry  *filter.Registry
	filters   []filter.Filter
	builtins  bool
	strict    bool
	cacheSize int
	maxCycles int
	logger    *slog.Logger
	onError   observe.ErrorHandler
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	counter   observe.Counter
	hooks     []observe.CheckpointHook
	missing   template.MissingAction
}

// defaultDelegateConfig returns the default configuration.
func defaultDelegateConfig() delegateConfig {
	s := config.Default()
	return delegateConfig{
		builtins:  true,
		strict:    s.Strict,
		cacheSize: s.CacheSize,
		maxCycles: s.MaxCycles,
		logger:    slog.Default(),
		missing:   template.MissingEmpty,
	}
}

// Option configures a Delegate.
type Option func(*delegateConfig)

// WithFilters registers filters in the delegate's registry.
//
// Example:
//
//	d, _ := exprbind.New(exprbind.WithFilters(
//	    filter.New("upper", upper),
//	    filter.NewTwoWay("plusN", plus, minus),
//	))
func WithFilters(filters ...filter.Filter) Option {
	return func(c *delegateConfig) {
		c.filters = append(c.filters, filters...)
	}
}

// WithRegistry uses r as the delegate's registry instead of a new one.
// Filters from WithFilters and the built-ins are added to it.
func WithRegistry(r *filter.Registry) Option {
	return func(c *delegateConfig) {
		c.registry = r
	}
}

// WithBuiltins controls whether tokenList and styleObject are registered.
// Default: true
func WithBuiltins(enabled bool) Option {
	return func(c *delegateConfig) {
		c.builtins = enabled
	}
}

// WithStrict selects strict (default) or lax assignment. In lax mode
// writes to unassignable expressions are dropped and logged.
func WithStrict(strict bool) Option {
	return func(c *delegateConfig) {
		c.strict = strict
	}
}

// WithCacheSize sets the number of parsed expressions kept.
// Default: 256
func WithCacheSize(n int) Option {
	return func(c *delegateConfig) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// WithMaxCycles sets the maximum dirty-check cycles per checkpoint.
// Default: 1000
func WithMaxCycles(n int) Option {
	return func(c *delegateConfig) {
		if n > 0 {
			c.maxCycles = n
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *delegateConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorHandler sets the error sink for evaluation, filter and callback
// failures. By default they are logged.
func WithErrorHandler(h observe.ErrorHandler) Option {
	return func(c *delegateConfig) {
		c.onError = h
	}
}

// WithMetrics enables OTel metrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *delegateConfig) {
		c.metrics = m
	}
}

// WithTracing enables OTel spans for checkpoints and two-way writes.
func WithTracing(sm observability.SpanManager) Option {
	return func(c *delegateConfig) {
		c.spans = sm
	}
}

// WithCounter injects a handle that follows the number of open observers.
func WithCounter(counter observe.Counter) Option {
	return func(c *delegateConfig) {
		c.counter = counter
	}
}

// WithCheckpointHook adds a function run after each checkpoint that
// re-evaluated something.
func WithCheckpointHook(h observe.CheckpointHook) Option {
	return func(c *delegateConfig) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}

// WithMissingAction sets how text bindings render undefined and null.
// Default: template.MissingEmpty
func WithMissingAction(action template.MissingAction) Option {
	return func(c *delegateConfig) {
		c.missing = action
	}
}

// WithSettings applies loaded settings: strictness, cache size and cycle
// limit. The interval and log level are for the caller's runtime loop and
// logger.
func WithSettings(s config.Settings) Option {
	return func(c *delegateConfig) {
		c.strict = s.Strict
		if s.CacheSize > 0 {
			c.cacheSize = s.CacheSize
		}
		if s.MaxCycles > 0 {
			c.maxCycles = s.MaxCycles
		}
	}
}
