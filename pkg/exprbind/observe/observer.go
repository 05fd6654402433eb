package observe

import (
	"context"
	"time"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// Callback receives the new and previous value of an observed expression.
type Callback func(newValue, oldValue any)

type observerState int

const (
	stateCreated observerState = iota
	stateOpen
	stateClosed
)

// Observer tracks one bound expression. It moves from created to open to
// closed; closing is terminal.
type Observer struct {
	id       string
	rt       *Runtime
	expr     *expr.Expression
	scope    *expr.Scope
	deps     *depSet
	value    any
	callback Callback
	state    observerState
}

// ID returns the observer's unique identifier.
func (o *Observer) ID() string { return o.id }

// Expression returns the observed expression.
func (o *Observer) Expression() *expr.Expression { return o.expr }

// Scope returns the scope the expression is evaluated in.
func (o *Observer) Scope() *expr.Scope { return o.scope }

// Value returns the value from the last evaluation.
func (o *Observer) Value() any { return o.value }

// Closed reports whether Close has been called.
func (o *Observer) Closed() bool { return o.state == stateClosed }

// Open starts reporting changes to cb and returns the current value. If a
// dependency changed since the observer was created, the value is
// refreshed first without calling cb. A nil cb tracks without reporting.
func (o *Observer) Open(cb Callback) (any, error) {
	switch o.state {
	case stateClosed:
		return value.Undefined, ErrObserverClosed
	case stateOpen:
		return o.value, ErrObserverOpen
	}

	if o.deps.changed() {
		o.value = o.evaluate(context.Background())
	}
	o.callback = cb
	o.state = stateOpen
	o.rt.register(o)
	return o.value, nil
}

// Close stops tracking and releases every reference to the observed
// objects. It is idempotent and safe to call from within the observer's own
// callback.
func (o *Observer) Close() {
	if o.state == stateClosed {
		return
	}
	if o.state == stateOpen {
		o.rt.unregister(o)
	}
	o.state = stateClosed
	o.callback = nil
	o.deps.release()
	o.value = value.Undefined
}

// Discard re-evaluates without reporting, so the next checkpoint only sees
// changes made after this call. Two-way bindings call it after SetValue to
// avoid echoing their own write. Returns the current value.
func (o *Observer) Discard() any {
	if o.state != stateClosed {
		o.value = o.evaluate(context.Background())
	}
	return o.value
}

// SetValue writes v through the expression, the inverse of evaluation.
// The change is reported at the next checkpoint like any other mutation.
func (o *Observer) SetValue(v any) error {
	return o.SetValueContext(context.Background(), v)
}

// SetValueContext is SetValue with a context for tracing.
func (o *Observer) SetValueContext(ctx context.Context, v any) error {
	if o.state == stateClosed {
		return ErrObserverClosed
	}
	_, span := o.rt.cfg.spans.StartWriteSpan(ctx, o.expr.Source())
	err := o.rt.cfg.evaluator.EvaluateAndSet(o.expr, o.scope, v)
	o.rt.cfg.spans.EndSpanWithError(span, err)
	return err
}

// evaluate recomputes the value and replaces the dependency set.
func (o *Observer) evaluate(ctx context.Context) any {
	deps := &depSet{}
	start := time.Now()
	v, err := o.rt.cfg.evaluator.EvaluateTracked(o.expr, o.scope, deps)
	o.rt.cfg.metrics.RecordEvaluation(ctx, time.Since(start), err)
	o.deps = deps
	if err != nil {
		o.rt.report(o, err)
		return value.Undefined
	}
	return v
}

// check re-evaluates when a dependency changed and calls the callback when
// the value differs. changed reports a re-evaluation; fired a callback.
func (o *Observer) check(ctx context.Context) (changed, fired bool) {
	if o.state != stateOpen || !o.deps.changed() {
		return false, false
	}

	old := o.value
	o.value = o.evaluate(ctx)
	if value.Identical(o.value, old) || o.callback == nil {
		return true, false
	}

	o.invoke(o.value, old)
	return true, true
}

func (o *Observer) invoke(newValue, oldValue any) {
	cb := o.callback
	defer func() {
		if p := recover(); p != nil {
			o.rt.report(o, &CallbackPanicError{Value: p})
		}
	}()
	cb(newValue, oldValue)
}
