package observe

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observability"
)

// Stats summarizes one checkpoint.
type Stats struct {
	// Cycles is the number of dirty-check passes.
	Cycles int
	// Evaluations counts observers re-evaluated because a dependency
	// changed.
	Evaluations int
	// Fired counts callbacks invoked.
	Fired int
	// Duration is the wall time of the checkpoint.
	Duration time.Duration
}

// Runtime owns a set of observers and flushes them at checkpoints.
//
// A Runtime is single-threaded: its methods and those of its observers must
// be called from one goroutine at a time. Run, Do and Request let other
// goroutines hand work to a loop goroutine instead.
type Runtime struct {
	cfg runtimeConfig

	observers []*Observer
	live      int

	running  atomic.Bool
	jobs     chan job
	requests chan struct{}
}

type job struct {
	fn   func()
	done chan struct{}
}

// NewRuntime creates a runtime.
func NewRuntime(opts ...Option) *Runtime {
	cfg := defaultRuntimeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.evaluator == nil {
		cfg.evaluator = expr.New(expr.WithLogger(cfg.logger))
	}
	return &Runtime{
		cfg:      cfg,
		jobs:     make(chan job),
		requests: make(chan struct{}, 1),
	}
}

// Evaluator returns the evaluator observers use.
func (r *Runtime) Evaluator() *expr.Evaluator {
	return r.cfg.evaluator
}

// Live returns the number of open observers.
func (r *Runtime) Live() int {
	return r.live
}

// Observe creates an observer of x in scope. The expression is evaluated
// once and its dependencies recorded; evaluation errors go to the error
// sink and leave the value Undefined. The observer does not report changes
// until it is opened.
func (r *Runtime) Observe(x *expr.Expression, scope *expr.Scope) *Observer {
	o := &Observer{
		id:    uuid.NewString(),
		rt:    r,
		expr:  x,
		scope: scope,
		deps:  &depSet{},
	}
	o.value = o.evaluate(context.Background())
	return o
}

func (r *Runtime) register(o *Observer) {
	r.observers = append(r.observers, o)
	r.live++
	r.cfg.counter.Add(1)
	r.cfg.metrics.AddLiveObservers(context.Background(), 1)
	observability.LogObserverOpen(r.cfg.logger, o.id, o.expr.Source(), o.deps.len())
}

func (r *Runtime) unregister(o *Observer) {
	for i, other := range r.observers {
		if other == o {
			r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
			r.live--
			r.cfg.counter.Add(-1)
			r.cfg.metrics.AddLiveObservers(context.Background(), -1)
			observability.LogObserverClose(r.cfg.logger, o.id, r.live)
			return
		}
	}
}

// report sends err to the error sink.
func (r *Runtime) report(o *Observer, err error) {
	berr := &BindingError{ObserverID: o.id, Expr: o.expr.Source(), Err: err}
	if r.cfg.onError != nil {
		r.cfg.onError(berr)
		return
	}
	observability.LogEvalError(r.cfg.logger, o.id, o.expr.Source(), err)
}

// Checkpoint dirty-checks every open observer. Observers whose dependencies
// changed are re-evaluated and, when their value differs, their callbacks
// run. Passes repeat until nothing changes, so mutations made by callbacks
// are flushed in the same checkpoint. If the observers have not settled
// after the configured number of cycles, ErrMaxCycles is reported to the
// error sink and returned.
func (r *Runtime) Checkpoint(ctx context.Context) (Stats, error) {
	done := observability.TimedOperation()
	start := time.Now()
	ctx, span := r.cfg.spans.StartCheckpointSpan(ctx, len(r.observers))

	var stats Stats
	var err error
	for {
		if stats.Cycles >= r.cfg.maxCycles {
			err = fmt.Errorf("%w after %d cycles", ErrMaxCycles, stats.Cycles)
			break
		}
		stats.Cycles++

		dirty := 0
		// Callbacks may open or close observers; iterate over a copy.
		pending := append([]*Observer(nil), r.observers...)
		for _, o := range pending {
			changed, fired := o.check(ctx)
			if changed {
				dirty++
			}
			if fired {
				stats.Fired++
			}
		}
		stats.Evaluations += dirty
		if dirty == 0 {
			break
		}
		r.cfg.spans.AddSpanEvent(ctx, "cycle", attribute.Int("dirty", dirty))
	}

	stats.Duration = time.Since(start)
	if err != nil {
		if r.cfg.onError != nil {
			r.cfg.onError(err)
		} else {
			r.cfg.logger.Error("checkpoint failed", slog.String("error", err.Error()))
		}
	}

	r.cfg.metrics.RecordCheckpoint(ctx, stats.Cycles, stats.Fired, stats.Duration, err)
	r.cfg.spans.EndSpanWithError(span, err)
	observability.LogCheckpoint(r.cfg.logger, stats.Cycles, stats.Evaluations, stats.Fired, done())

	if stats.Evaluations > 0 {
		for _, h := range r.cfg.afterHooks {
			h(ctx, stats)
		}
	}
	return stats, err
}

// CloseAll closes every open observer.
func (r *Runtime) CloseAll() {
	for _, o := range append([]*Observer(nil), r.observers...) {
		o.Close()
	}
}

// Run owns the runtime from a loop goroutine: it performs a checkpoint
// every interval (never, if interval <= 0), after each Request, and after
// each function passed to Do. Run returns nil when ctx is cancelled and
// ErrRunning if another Run is active.
func (r *Runtime) Run(ctx context.Context, interval time.Duration) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer r.running.Store(false)

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			_, _ = r.Checkpoint(ctx)
		case <-r.requests:
			_, _ = r.Checkpoint(ctx)
		case j := <-r.jobs:
			j.fn()
			close(j.done)
			_, _ = r.Checkpoint(ctx)
		}
	}
}

// Do runs fn on the loop goroutine, followed by a checkpoint, and waits for
// fn to finish. It requires Run to be active and returns ctx.Err() if ctx
// ends first.
func (r *Runtime) Do(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case r.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Request asks the loop for a checkpoint without waiting. Requests made
// before the loop gets to them coalesce into one checkpoint.
func (r *Runtime) Request() {
	select {
	case r.requests <- struct{}{}:
	default:
	}
}
