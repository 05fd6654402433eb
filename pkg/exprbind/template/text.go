package template

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
)

// Delimiters of live and one-time bindings.
const (
	liveOpen     = "{{"
	liveClose    = "}}"
	oneTimeOpen  = "[["
	oneTimeClose = "]]"
)

// Part is one piece of a parsed text: either literal text or a binding.
type Part struct {
	// Literal is the text of a literal part.
	Literal string
	// Expr is the expression of a binding part; nil for literals.
	Expr *expr.Expression
	// OneTime marks a [[ ]] binding, evaluated once and never observed.
	OneTime bool
}

// IsBinding reports whether the part is a binding.
func (p Part) IsBinding() bool {
	return p.Expr != nil
}

// String renders the part as template source.
func (p Part) String() string {
	if p.Expr == nil {
		return p.Literal
	}
	if p.OneTime {
		return oneTimeOpen + p.Expr.Source() + oneTimeClose
	}
	return liveOpen + p.Expr.Source() + liveClose
}

// Text is a parsed template string.
type Text struct {
	source string
	parts  []Part
}

// ParseFunc parses one binding expression. expr.Parse and
// (*expr.Evaluator).Parse both qualify.
type ParseFunc func(source string) (*expr.Expression, error)

// ParseText splits src into literal text and bindings.
//
// {{ expr }} is a live binding and [[ expr ]] a one-time binding. An opening
// delimiter without a matching close is kept as literal text. A binding
// that fails to parse aborts with an error wrapping expr.ErrSyntax.
func ParseText(src string) (*Text, error) {
	return ParseTextWith(src, expr.Parse)
}

// ParseTextWith is ParseText with a custom expression parser, typically a
// cached one.
func ParseTextWith(src string, parse ParseFunc) (*Text, error) {
	t := &Text{source: src}
	var lit strings.Builder

	rest := src
	offset := 0
	for rest != "" {
		start, open, closer, oneTime := nextOpen(rest)
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+len(open):], closer)
		if end < 0 {
			// Unterminated: the delimiter is literal text.
			lit.WriteString(rest[:start+len(open)])
			rest = rest[start+len(open):]
			offset += start + len(open)
			continue
		}

		lit.WriteString(rest[:start])
		body := rest[start+len(open) : start+len(open)+end]
		x, err := parse(body)
		if err != nil {
			return nil, fmt.Errorf("binding at offset %d: %w", offset+start, err)
		}
		if lit.Len() > 0 {
			t.parts = append(t.parts, Part{Literal: lit.String()})
			lit.Reset()
		}
		t.parts = append(t.parts, Part{Expr: x, OneTime: oneTime})

		consumed := start + len(open) + end + len(closer)
		rest = rest[consumed:]
		offset += consumed
	}

	lit.WriteString(rest)
	if lit.Len() > 0 {
		t.parts = append(t.parts, Part{Literal: lit.String()})
	}
	return t, nil
}

// MustParseText is ParseText that panics on error.
func MustParseText(src string) *Text {
	t, err := ParseText(src)
	if err != nil {
		panic(fmt.Sprintf("template: %v", err))
	}
	return t
}

// nextOpen finds the earliest opening delimiter in s.
func nextOpen(s string) (start int, open, closer string, oneTime bool) {
	live := strings.Index(s, liveOpen)
	once := strings.Index(s, oneTimeOpen)
	switch {
	case live < 0 && once < 0:
		return -1, "", "", false
	case once < 0 || (live >= 0 && live < once):
		return live, liveOpen, liveClose, false
	default:
		return once, oneTimeOpen, oneTimeClose, true
	}
}

// Source returns the text ParseText was given.
func (t *Text) Source() string { return t.source }

// Parts returns the literal and binding parts in order.
func (t *Text) Parts() []Part { return t.parts }

// Bindings returns the binding parts in order.
func (t *Text) Bindings() []Part {
	var out []Part
	for _, p := range t.parts {
		if p.IsBinding() {
			out = append(out, p)
		}
	}
	return out
}

// IsStatic reports whether the text has no bindings.
func (t *Text) IsStatic() bool {
	for _, p := range t.parts {
		if p.IsBinding() {
			return false
		}
	}
	return true
}

// IsSingleBinding reports whether the text is exactly one binding with no
// surrounding literal text. Such a text carries the raw value rather than
// its string form, which is what bind and repeat attributes need.
func (t *Text) IsSingleBinding() bool {
	return len(t.parts) == 1 && t.parts[0].IsBinding()
}

// OneTime reports whether every binding is one-time.
func (t *Text) OneTime() bool {
	for _, p := range t.parts {
		if p.IsBinding() && !p.OneTime {
			return false
		}
	}
	return true
}
