package template

import (
	"fmt"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// BindScope returns the scope a bind="{{ x }}" block evaluates its content
// in, given v, the value of x in scope.
//
// A named clause (x as y) keeps the model and the outer names and adds y.
// Without a name, v becomes the model and every named binding is dropped.
func BindScope(scope *expr.Scope, x *expr.Expression, v any) *expr.Scope {
	if a, ok := x.Alias(); ok && a.Name != "" {
		return scope.With(a.Name, v)
	}
	return scope.Reset(v)
}

// RepeatScopes returns one scope per element of collection, for a
// repeat="{{ x }}" block.
//
// With item in xs each element is bound to item, and to the index name as
// well when given (item, i in xs); the model and outer names are kept.
// Without a name each element becomes the model of its scope. A collection
// that is not an array yields no scopes.
func RepeatScopes(scope *expr.Scope, x *expr.Expression, collection any) []*expr.Scope {
	items := value.ToSlice(collection)
	if len(items) == 0 {
		return nil
	}

	a, named := x.Alias()
	named = named && a.Name != ""

	scopes := make([]*expr.Scope, len(items))
	for i, item := range items {
		if !named {
			scopes[i] = scope.Reset(item)
			continue
		}
		child := scope.With(a.Name, item)
		if a.Index != "" {
			child = child.With(a.Index, i)
		}
		scopes[i] = child
	}
	return scopes
}

// Bind evaluates x in scope and returns the scope for its block.
func Bind(ev *expr.Evaluator, x *expr.Expression, scope *expr.Scope) (*expr.Scope, error) {
	v, err := ev.Evaluate(x, scope)
	if err != nil {
		return nil, fmt.Errorf("bind %q: %w", x.Source(), err)
	}
	return BindScope(scope, x, v), nil
}

// Repeat evaluates x in scope and returns one scope per element.
func Repeat(ev *expr.Evaluator, x *expr.Expression, scope *expr.Scope) ([]*expr.Scope, error) {
	v, err := ev.Evaluate(x, scope)
	if err != nil {
		return nil, fmt.Errorf("repeat %q: %w", x.Source(), err)
	}
	return RepeatScopes(scope, x, v), nil
}
