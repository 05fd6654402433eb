package benchmarks

import (
	"testing"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/filter"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

const complexExpr = "(a.b + c.d) / e - f * g.h > 0 ? items[i].name | upper : 'none'"

func benchModel() map[string]any {
	return map[string]any{
		"a": map[string]any{"b": 5}, "c": map[string]any{"d": 5},
		"e": 2, "f": 3, "g": map[string]any{"h": 1},
		"i": 1,
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b"},
		},
	}
}

func upper(v any, _ ...any) (any, error) {
	return value.ToString(v) + "!", nil
}

// BenchmarkParse_Simple parses a member chain.
func BenchmarkParse_Simple(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = expr.Parse("a.b.c")
	}
}

// BenchmarkParse_Complex parses arithmetic, a ternary and a filter.
func BenchmarkParse_Complex(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = expr.Parse(complexExpr)
	}
}

// BenchmarkParse_Cached parses through a warm cache.
func BenchmarkParse_Cached(b *testing.B) {
	cache := expr.NewCache(16)
	_, _ = cache.Parse(complexExpr)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Parse(complexExpr)
	}
}

// BenchmarkEvaluate_Simple evaluates a member chain.
func BenchmarkEvaluate_Simple(b *testing.B) {
	ev := expr.New()
	x := expr.MustParse("a.b")
	scope := expr.NewScope(benchModel())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ev.Evaluate(x, scope)
	}
}

// BenchmarkEvaluate_Complex evaluates arithmetic, a ternary and a filter.
func BenchmarkEvaluate_Complex(b *testing.B) {
	ev := expr.New(expr.WithFilters(filter.MustNewRegistry(filter.With(filter.New("upper", upper)))))
	x := expr.MustParse(complexExpr)
	scope := expr.NewScope(benchModel())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ev.Evaluate(x, scope)
	}
}

// BenchmarkEvaluate_Struct reads fields of a Go struct.
func BenchmarkEvaluate_Struct(b *testing.B) {
	type user struct {
		Name string
		Age  int
	}
	ev := expr.New()
	x := expr.MustParse("u.Name + u.Age")
	scope := expr.NewScope(map[string]any{"u": &user{Name: "Tim", Age: 30}})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ev.Evaluate(x, scope)
	}
}

// BenchmarkEvaluateAndSet writes through a computed member.
func BenchmarkEvaluateAndSet(b *testing.B) {
	ev := expr.New()
	x := expr.MustParse("items[i].name")
	scope := expr.NewScope(benchModel())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ev.EvaluateAndSet(x, scope, "c")
	}
}
