package filter

import (
	"strings"
	"unicode"

	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

// TokenList renders an object as the space-separated list of its keys
// whose values are truthy, in key order. Non-objects render unchanged.
func TokenList(v any, _ ...any) (any, error) {
	if value.KindOf(v) != value.KindObject {
		return v, nil
	}
	var tokens []string
	for _, key := range value.Keys(v) {
		if value.IsTruthy(value.Get(v, key)) {
			tokens = append(tokens, key)
		}
	}
	return strings.Join(tokens, " "), nil
}

// StyleObject renders an object as an inline style declaration. camelCase
// keys become kebab-case properties, so backgroundColor becomes
// background-color and WebkitUserSelect becomes -webkit-user-select.
// Non-objects render unchanged.
func StyleObject(v any, _ ...any) (any, error) {
	if value.KindOf(v) != value.KindObject {
		return v, nil
	}
	keys := value.Keys(v)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, kebab(key)+": "+value.ToString(value.Get(v, key)))
	}
	return strings.Join(parts, "; "), nil
}

func kebab(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			sb.WriteByte('-')
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Builtins returns the built-in filters.
func Builtins() []Filter {
	return []Filter{
		New("tokenList", TokenList),
		New("styleObject", StyleObject),
	}
}

// WithBuiltins registers the built-in filters.
func WithBuiltins() Option {
	return With(Builtins()...)
}
