package exprbind

import (
	"fmt"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observe"
	"github.com/randalmurphal/exprbind/pkg/exprbind/template"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// TextBinding is a template string bound to a scope. Live {{ }} parts are
// observed; one-time [[ ]] parts are evaluated once.
type TextBinding struct {
	d        *Delegate
	text     *template.Text
	values   []any
	parts    []*observe.Observer // nil for one-time parts
	onChange func(string)
	rendered string
	queued   bool
	closed   bool
}

// BindText parses src as a template and binds it in scope. onChange, if
// not nil, is called once per checkpoint in which the rendering changed.
func (d *Delegate) BindText(src string, scope *expr.Scope, onChange func(string)) (*TextBinding, error) {
	text, err := template.ParseTextWith(src, d.eval.Parse)
	if err != nil {
		return nil, err
	}

	bindings := text.Bindings()
	tb := &TextBinding{
		d:        d,
		text:     text,
		values:   make([]any, len(bindings)),
		parts:    make([]*observe.Observer, len(bindings)),
		onChange: onChange,
	}

	for i, p := range bindings {
		if p.OneTime {
			v, err := d.eval.Evaluate(p.Expr, scope)
			if err != nil {
				d.report(&observe.BindingError{Expr: p.Expr.Source(), Err: err})
				v = value.Undefined
			}
			tb.values[i] = v
			continue
		}

		o := d.rt.Observe(p.Expr, scope)
		v, err := o.Open(func(newValue, _ any) {
			tb.values[i] = newValue
			d.markDirty(tb)
		})
		if err != nil {
			tb.Close()
			return nil, fmt.Errorf("open binding %q: %w", p.Expr.Source(), err)
		}
		tb.parts[i] = o
		tb.values[i] = v
	}

	tb.rendered = tb.render()
	return tb, nil
}

// String returns the current rendering.
func (tb *TextBinding) String() string {
	return tb.rendered
}

// Value returns the raw value of a text that is exactly one binding, and
// the rendering otherwise.
func (tb *TextBinding) Value() any {
	if tb.text.IsSingleBinding() {
		return tb.values[0]
	}
	return tb.rendered
}

// Text returns the parsed template.
func (tb *TextBinding) Text() *template.Text {
	return tb.text
}

// SetValue writes v back through a text that is exactly one live binding,
// the view-to-model half of a two-way binding. The write is not echoed
// back through onChange.
func (tb *TextBinding) SetValue(v any) error {
	if tb.closed {
		return ErrBindingClosed
	}
	if !tb.text.IsSingleBinding() || tb.parts[0] == nil {
		return ErrNotTwoWay
	}
	o := tb.parts[0]
	if err := o.SetValue(v); err != nil {
		return err
	}
	tb.values[0] = o.Discard()
	tb.rendered = tb.render()
	return nil
}

// Close closes the observers of every live part. It is idempotent.
func (tb *TextBinding) Close() {
	if tb.closed {
		return
	}
	tb.closed = true
	for _, o := range tb.parts {
		if o != nil {
			o.Close()
		}
	}
	tb.onChange = nil
}

// Closed reports whether Close has been called.
func (tb *TextBinding) Closed() bool {
	return tb.closed
}

func (tb *TextBinding) render() string {
	out, err := tb.d.renderer.Render(tb.text, tb.values)
	if err != nil {
		tb.d.report(fmt.Errorf("render %q: %w", tb.text.Source(), err))
	}
	return out
}

func (tb *TextBinding) flush() {
	if tb.closed {
		return
	}
	out := tb.render()
	if out == tb.rendered {
		return
	}
	tb.rendered = out
	if tb.onChange != nil {
		tb.onChange(out)
	}
}
