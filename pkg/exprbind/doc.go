// Package exprbind binds expressions to data models.
//
// A Delegate ties together the pieces in the sub-packages: expressions are
// parsed by package expr, filters come from a filter.Registry, live values
// are kept current by an observe.Runtime, and template strings mixing text
// with {{ live }} and [[ one-time ]] bindings are handled by package
// template.
//
// # Quick Start
//
//	d, err := exprbind.New(exprbind.WithFilters(
//	    filter.New("upperCase", func(v any, _ ...any) (any, error) {
//	        return strings.ToUpper(value.ToString(v)), nil
//	    }),
//	))
//	if err != nil {
//	    return err
//	}
//	defer d.Close()
//
//	model := map[string]any{"name": "world"}
//	tb, err := d.BindText("Hello {{ name | upperCase }}!", expr.NewScope(model), func(s string) {
//	    fmt.Println(s)
//	})
//
//	model["name"] = "gopher"
//	d.Checkpoint(ctx) // prints "Hello GOPHER!"
//
// # Checkpoints
//
// Nothing is pushed automatically. After mutating the model, call
// Checkpoint (or drive the runtime with Runtime().Run and Runtime().Do).
// Each checkpoint re-evaluates dirty observers until the values settle and
// then calls every changed text binding once.
//
// # Two-way bindings
//
// A text that is exactly one live binding can write back with
// TextBinding.SetValue. Filters in the expression are inverted right to
// left; a filter without an inverse makes the write fail with
// ErrUnassignable, or be dropped in lax mode.
//
// # Errors
//
// Syntax errors abort BindText and PrepareBinding. Evaluation, filter and
// callback failures are sent to the handler from WithErrorHandler, or
// logged when none is set; the binding stays live.
package exprbind
