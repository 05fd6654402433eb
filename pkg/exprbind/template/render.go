package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// ErrValueCount is returned by Render when the number of values does not
// match the number of bindings.
var ErrValueCount = errors.New("value count does not match binding count")

// Renderer turns a parsed Text and its binding values into a string.
//
// Create with NewRenderer() and configure with Option functions.
// Renderer is safe for concurrent use after construction.
type Renderer struct {
	missingAction MissingAction
}

// NewRenderer creates a Renderer. Missing values render as empty strings
// unless WithMissingAction says otherwise.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{missingAction: MissingEmpty}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render joins the literal parts of t with values, one value per binding in
// the order of t.Bindings().
func (r *Renderer) Render(t *Text, values []any) (string, error) {
	bindings := 0
	for _, p := range t.parts {
		if p.IsBinding() {
			bindings++
		}
	}
	if bindings != len(values) {
		return "", fmt.Errorf("%w: %d bindings, %d values", ErrValueCount, bindings, len(values))
	}

	var sb strings.Builder
	var missing []string
	i := 0
	for _, p := range t.parts {
		if !p.IsBinding() {
			sb.WriteString(p.Literal)
			continue
		}
		v := values[i]
		i++
		if !value.IsNullish(v) {
			sb.WriteString(value.ToString(v))
			continue
		}
		switch r.missingAction {
		case MissingKeep:
			sb.WriteString(p.String())
		case MissingError:
			missing = append(missing, strings.TrimSpace(p.Expr.Source()))
		}
	}

	if len(missing) > 0 {
		return sb.String(), &UndefinedValueError{Sources: missing}
	}
	return sb.String(), nil
}

// Execute evaluates every binding of t once in scope and renders the
// result. The first evaluation error is returned.
func (r *Renderer) Execute(t *Text, ev *expr.Evaluator, scope *expr.Scope) (string, error) {
	values, err := Evaluate(t, ev, scope)
	if err != nil {
		return "", err
	}
	return r.Render(t, values)
}

// Evaluate evaluates every binding of t once, in order.
func Evaluate(t *Text, ev *expr.Evaluator, scope *expr.Scope) ([]any, error) {
	var values []any
	for _, p := range t.parts {
		if !p.IsBinding() {
			continue
		}
		v, err := ev.Evaluate(p.Expr, scope)
		if err != nil {
			return nil, fmt.Errorf("evaluate %q: %w", p.Expr.Source(), err)
		}
		values = append(values, v)
	}
	return values, nil
}

// UndefinedValueError is returned when MissingError is set and one or more
// bindings evaluate to undefined or null.
type UndefinedValueError struct {
	// Sources lists the trimmed source of each missing binding.
	Sources []string
}

// Error implements the error interface.
func (e *UndefinedValueError) Error() string {
	if len(e.Sources) == 1 {
		return fmt.Sprintf("undefined value: %s", e.Sources[0])
	}
	return fmt.Sprintf("undefined values: %s", strings.Join(e.Sources, ", "))
}

// defaultRenderer is the package-level renderer with default settings.
var defaultRenderer = NewRenderer()

// Render renders t with the default renderer. Missing values are empty.
func Render(t *Text, values []any) (string, error) {
	return defaultRenderer.Render(t, values)
}

// Execute parses src and renders it once against model with the default
// renderer and a default evaluator, which has no filters.
//
// Example:
//
//	out, _ := template.Execute("Hello {{ name }}", map[string]any{"name": "World"})
//	// out: "Hello World"
func Execute(src string, model any) (string, error) {
	t, err := ParseText(src)
	if err != nil {
		return "", err
	}
	return defaultRenderer.Execute(t, expr.New(), expr.NewScope(model))
}
