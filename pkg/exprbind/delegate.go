package exprbind

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/filter"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observe"
	"github.com/randalmurphal/exprbind/pkg/exprbind/template"
)

// Delegate prepares bindings for a template subtree. It owns the filter
// registry, the parse cache, the evaluator and the observer runtime, so
// every binding it creates shares them.
//
// Like the runtime it wraps, a Delegate belongs to one goroutine; use
// Runtime().Run and Runtime().Do to drive it from others.
type Delegate struct {
	filters  *filter.Registry
	eval     *expr.Evaluator
	rt       *observe.Runtime
	renderer *template.Renderer
	logger   *slog.Logger
	onError  observe.ErrorHandler

	// text bindings with a part that changed during the current checkpoint
	dirty []*TextBinding
}

// New creates a Delegate.
//
// Example:
//
//	d, err := exprbind.New(
//	    exprbind.WithFilters(filter.New("upper", upper)),
//	    exprbind.WithStrict(false),
//	)
func New(opts ...Option) (*Delegate, error) {
	cfg := defaultDelegateConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := cfg.registry
	if reg == nil {
		reg = filter.MustNewRegistry()
	}
	if cfg.builtins {
		for _, f := range filter.Builtins() {
			if reg.Has(f.Name) {
				continue
			}
			if err := reg.Add(f); err != nil {
				return nil, err
			}
		}
	}
	for _, f := range cfg.filters {
		if err := reg.Add(f); err != nil {
			return nil, fmt.Errorf("register filter: %w", err)
		}
	}

	d := &Delegate{
		filters:  reg,
		renderer: template.NewRenderer(template.WithMissingAction(cfg.missing)),
		logger:   cfg.logger,
		onError:  cfg.onError,
	}
	d.eval = expr.New(
		expr.WithFilters(reg),
		expr.WithStrict(cfg.strict),
		expr.WithLogger(cfg.logger),
		expr.WithCache(expr.NewCache(cfg.cacheSize)),
	)

	rtOpts := []observe.Option{
		observe.WithEvaluator(d.eval),
		observe.WithLogger(cfg.logger),
		observe.WithMaxCycles(cfg.maxCycles),
		observe.WithErrorHandler(cfg.onError),
		observe.WithMetrics(cfg.metrics),
		observe.WithTracing(cfg.spans),
		observe.WithCounter(cfg.counter),
		// Text bindings flush before user hooks see the checkpoint.
		observe.WithCheckpointHook(d.flushText),
	}
	for _, h := range cfg.hooks {
		rtOpts = append(rtOpts, observe.WithCheckpointHook(h))
	}
	d.rt = observe.NewRuntime(rtOpts...)
	return d, nil
}

// Filters returns the delegate's filter registry.
func (d *Delegate) Filters() *filter.Registry { return d.filters }

// Evaluator returns the delegate's evaluator.
func (d *Delegate) Evaluator() *expr.Evaluator { return d.eval }

// Runtime returns the observer runtime.
func (d *Delegate) Runtime() *observe.Runtime { return d.rt }

// RegisterFilter adds a filter. inverse may be nil for a forward-only
// filter.
func (d *Delegate) RegisterFilter(name string, forward, inverse filter.Func) error {
	return d.filters.Register(name, forward, inverse)
}

// Parse parses src through the delegate's cache.
func (d *Delegate) Parse(src string) (*expr.Expression, error) {
	return d.eval.Parse(src)
}

// PrepareBinding parses src and returns an observer of it in scope. The
// observer is not open yet. A syntax error aborts binding creation;
// evaluation errors go to the error sink.
func (d *Delegate) PrepareBinding(src string, scope *expr.Scope) (*observe.Observer, error) {
	x, err := d.eval.Parse(src)
	if err != nil {
		return nil, err
	}
	return d.rt.Observe(x, scope), nil
}

// PrepareOneTime parses and evaluates src once, without observing it.
func (d *Delegate) PrepareOneTime(src string, scope *expr.Scope) (any, error) {
	x, err := d.eval.Parse(src)
	if err != nil {
		return nil, err
	}
	return d.eval.Evaluate(x, scope)
}

// Checkpoint flushes pending changes; see observe.Runtime.Checkpoint.
func (d *Delegate) Checkpoint(ctx context.Context) (observe.Stats, error) {
	return d.rt.Checkpoint(ctx)
}

// Close closes every open observer, including those of text bindings.
func (d *Delegate) Close() {
	d.rt.CloseAll()
	d.dirty = nil
}

// report sends err to the error sink.
func (d *Delegate) report(err error) {
	if d.onError != nil {
		d.onError(err)
		return
	}
	d.logger.Error("text binding failed", slog.String("error", err.Error()))
}

func (d *Delegate) markDirty(tb *TextBinding) {
	if tb.queued {
		return
	}
	tb.queued = true
	d.dirty = append(d.dirty, tb)
}

// flushText renders every text binding changed during the checkpoint and
// notifies it once.
func (d *Delegate) flushText(_ context.Context, _ observe.Stats) {
	pending := d.dirty
	d.dirty = nil
	for _, tb := range pending {
		tb.queued = false
		tb.flush()
	}
}
