package exprbind

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/filter"
	"github.com/randalmurphal/exprbind/pkg/exprbind/observe"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

func TestText_Arithmetic(t *testing.T) {
	d, _ := newTestDelegate(t)
	g := map[string]any{"h": 2}
	model := map[string]any{
		"a": map[string]any{"b": 5}, "c": map[string]any{"d": 5},
		"e": 2, "f": 3, "g": g,
	}

	tb, seen := bindText(t, d, "{{ (a.b + c.d)/e - f * g.h }}", expr.NewScope(model))
	assert.Equal(t, "-1", tb.String())

	g["h"] = -1
	checkpoint(t, d)
	assert.Equal(t, "8", tb.String())
	assert.Equal(t, []string{"8"}, *seen)
}

func TestText_TokenList(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{"x": true, "y": false}

	tb, _ := bindText(t, d,
		"{{ {a: x, b: y} | tokenList }}|[[ {a: x, b: y} | tokenList ]]",
		expr.NewScope(model))
	assert.Equal(t, "a|a", tb.String())

	model["y"] = 1
	checkpoint(t, d)
	assert.Equal(t, "a b|a", tb.String())

	model["x"] = ""
	checkpoint(t, d)
	assert.Equal(t, "b|a", tb.String())
}

func TestText_StyleObject(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{"w": "10px", "c": "red"}

	tb, _ := bindText(t, d, "{{ {width: w, backgroundColor: c} | styleObject }}", expr.NewScope(model))
	assert.Equal(t, "width: 10px; background-color: red", tb.String())

	model["c"] = "blue"
	checkpoint(t, d)
	assert.Equal(t, "width: 10px; background-color: blue", tb.String())
}

func TestText_Filters(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{"bar": "bat", "num": 1.23456}

	tb, _ := bindText(t, d, "{{ bar | upperCase }}:{{ num | toFixed(4) }}", expr.NewScope(model))
	assert.Equal(t, "BAT:1.2346", tb.String())

	model["bar"] = "boo"
	checkpoint(t, d)
	assert.Equal(t, "BOO:1.2346", tb.String())
}

func TestText_ChainedFilters(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{"bar": 12.34}

	tb, _ := bindText(t, d, "{{ bar | toFixed(0) | hex | upperCase }}", expr.NewScope(model))
	assert.Equal(t, "C", tb.String())

	model["bar"] = 14.56
	checkpoint(t, d)
	assert.Equal(t, "F", tb.String())
}

func TestText_ExecutionCount(t *testing.T) {
	d, _ := newTestDelegate(t)
	obj := map[string]any{"count": 0}
	model := map[string]any{"dep": 1, "obj": obj}

	_, _ = bindText(t, d, `{{ dep | incrProp(obj, "count") }}`, expr.NewScope(model))
	assert.EqualValues(t, 1, obj["count"])

	model["dep"] = 2
	checkpoint(t, d)
	assert.EqualValues(t, 2, obj["count"])

	checkpoint(t, d)
	assert.EqualValues(t, 2, obj["count"])
}

func TestText_InlineFunctions(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{
		"base": 0,
		"a":    4,
		"b":    10,
		// this is the model when called by name.
		"sum": value.Method(func(this any, args ...any) (any, error) {
			total := value.ToNumber(value.Get(this, "base"))
			for _, a := range args {
				total += value.ToNumber(a)
			}
			return total, nil
		}),
	}

	tb, _ := bindText(t, d, "{{ sum(a, b) }}:{{ sum(a, 2) }}", expr.NewScope(model))
	assert.Equal(t, "14:6", tb.String())

	model["a"] = 10
	checkpoint(t, d)
	assert.Equal(t, "20:12", tb.String())

	model["b"] = 3
	checkpoint(t, d)
	assert.Equal(t, "13:12", tb.String())
}

func TestText_MethodReceiver(t *testing.T) {
	d, _ := newTestDelegate(t)
	user := map[string]any{
		"name": "Tim",
		"greet": value.Method(func(this any, args ...any) (any, error) {
			return value.ToString(args[0]) + " " + value.ToString(value.Get(this, "name")), nil
		}),
	}
	model := map[string]any{"user": user, "word": "hi"}

	tb, _ := bindText(t, d, "{{ user.greet(word) }}", expr.NewScope(model))
	assert.Equal(t, "hi Tim", tb.String())

	model["word"] = "bye"
	checkpoint(t, d)
	assert.Equal(t, "bye Tim", tb.String())
}

func TestText_ComplexComputedProperty(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{
		"foo": []any{map[string]any{"baz": "bo"}, map[string]any{"baz": "ba"}},
		"bar": -2,
		"bat": "t",
	}

	tb, _ := bindText(t, d, "{{ foo[bar + 2].baz + bat }}", expr.NewScope(model))
	assert.Equal(t, "bot", tb.String())

	model["bar"] = -1
	model["bat"] = "r"
	checkpoint(t, d)
	assert.Equal(t, "bar", tb.String())
}

func TestText_NewlyReachableObject(t *testing.T) {
	d, _ := newTestDelegate(t)
	foo := map[string]any{}
	model := map[string]any{"foo": foo}

	tb, _ := bindText(t, d, "{{ 1 == foo.bar.bat }}", expr.NewScope(model))
	assert.Equal(t, "false", tb.String())

	foo["bar"] = map[string]any{"bat": 1}
	checkpoint(t, d)
	assert.Equal(t, "true", tb.String())
}

func TestText_IdentifierIndex(t *testing.T) {
	d, _ := newTestDelegate(t)
	foo := map[string]any{"a": "A", "b": "B"}
	model := map[string]any{"foo": foo, "bar": "a"}

	tb, _ := bindText(t, d, "{{ foo[bar] }}", expr.NewScope(model))
	assert.Equal(t, "A", tb.String())

	model["bar"] = "b"
	checkpoint(t, d)
	assert.Equal(t, "B", tb.String())

	foo["b"] = "BB"
	checkpoint(t, d)
	assert.Equal(t, "BB", tb.String())
}

type namedKey struct{ name string }

func (k namedKey) String() string { return k.name }

func TestText_ObjectIndexUsesStringForm(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{
		"foo": map[string]any{"k1": "one", "k2": "two"},
		"key": namedKey{"k1"},
	}

	tb, _ := bindText(t, d, "{{ foo[key] }}", expr.NewScope(model))
	assert.Equal(t, "one", tb.String())

	model["key"] = namedKey{"k2"}
	checkpoint(t, d)
	assert.Equal(t, "two", tb.String())
}

func TestText_CoalescesPerCheckpoint(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{"a": 1, "b": 2}

	tb, seen := bindText(t, d, "{{ a }}-{{ b }}", expr.NewScope(model))
	assert.Equal(t, "1-2", tb.String())

	model["a"] = 2
	model["b"] = 3
	checkpoint(t, d)
	assert.Equal(t, []string{"2-3"}, *seen)

	// The value changes but renders the same.
	model["a"] = "2"
	stats := checkpoint(t, d)
	assert.Equal(t, 1, stats.Fired)
	assert.Equal(t, []string{"2-3"}, *seen)
}

func TestText_EvaluationErrorsGoToSink(t *testing.T) {
	d, sink := newTestDelegate(t)
	model := map[string]any{"a": 1}

	tb, _ := bindText(t, d, "x{{ a | nosuch }}y", expr.NewScope(model))
	assert.Equal(t, "xy", tb.String())
	require.Len(t, sink.errs, 1)
	assert.ErrorIs(t, sink.errs[0], ErrUnknownFilter)
	var be *observe.BindingError
	require.ErrorAs(t, sink.errs[0], &be)
	assert.Equal(t, " a | nosuch ", be.Expr)

	_, _ = bindText(t, d, "[[ a | nosuch ]]", expr.NewScope(model))
	assert.Len(t, sink.errs, 2)
}

func TestText_SyntaxErrorAborts(t *testing.T) {
	counter := &observe.LiveCounter{}
	d, _ := newTestDelegate(t, WithCounter(counter))

	_, err := d.BindText("{{ a }} {{ b + }}", expr.NewScope(nil), nil)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Equal(t, 0, counter.Load())
}

func TestTwoWay_ComputedProperty(t *testing.T) {
	d, _ := newTestDelegate(t)
	foo := map[string]any{"a": 1, "b": 2}
	model := map[string]any{"foo": foo, "bar": "a"}

	tb, seen := bindText(t, d, "{{ foo[bar] }}", expr.NewScope(model))
	require.NoError(t, tb.SetValue("x"))
	assert.Equal(t, "x", foo["a"])
	assert.Equal(t, "x", tb.String())

	// The write is not echoed back.
	checkpoint(t, d)
	assert.Empty(t, *seen)

	model["bar"] = "b"
	checkpoint(t, d)
	assert.Equal(t, "2", tb.String())

	require.NoError(t, tb.SetValue("y"))
	assert.Equal(t, "y", foo["b"])
	assert.Equal(t, "x", foo["a"])
}

func TestTwoWay_Filter(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{"bar": 10, "bat": 1, "boo": 3}

	tb, _ := bindText(t, d, "{{ bar | plusN(bat) | plusN(boo) }}", expr.NewScope(model))
	assert.Equal(t, "14", tb.String())

	require.NoError(t, tb.SetValue("8"))
	assert.EqualValues(t, 4, model["bar"])
	assert.Equal(t, 1, model["bat"])
	assert.Equal(t, 3, model["boo"])

	model["bar"] = 5
	model["bat"] = 3
	model["boo"] = -2
	checkpoint(t, d)
	assert.Equal(t, "6", tb.String())

	require.NoError(t, tb.SetValue("10"))
	assert.EqualValues(t, 9, model["bar"])
	assert.Equal(t, 3, model["bat"])
	assert.Equal(t, -2, model["boo"])
}

func TestTwoWay_InvertibleAndForwardOnlyFilters(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{"n": 255, "s": "abc"}
	scope := expr.NewScope(model)

	hex, _ := bindText(t, d, "{{ n | hex }}", scope)
	assert.Equal(t, "ff", hex.String())
	require.NoError(t, hex.SetValue("1a"))
	assert.EqualValues(t, 26, model["n"])

	upper, _ := bindText(t, d, "{{ s | upperCase }}", scope)
	assert.Equal(t, "ABC", upper.String())
	err := upper.SetValue("xyz")
	assert.ErrorIs(t, err, ErrUnassignable)
	assert.ErrorIs(t, err, filter.ErrNoInverse)
	assert.Equal(t, "abc", model["s"])
	assert.Equal(t, "ABC", upper.String())
}

func TestTwoWay_ScopeAliases(t *testing.T) {
	d, _ := newTestDelegate(t)
	item := map[string]any{"name": "Tim"}
	model := map[string]any{"foo": "bar"}
	scope := expr.NewScope(model).With("item", item)

	root, _ := bindText(t, d, "{{ foo }}", scope)
	require.NoError(t, root.SetValue("baz"))
	assert.Equal(t, "baz", model["foo"])

	name, _ := bindText(t, d, "{{ item.name }}", scope)
	require.NoError(t, name.SetValue("Sally"))
	assert.Equal(t, "Sally", item["name"])

	alias, _ := bindText(t, d, "{{ item }}", scope)
	assert.ErrorIs(t, alias.SetValue("x"), ErrUnassignable)
	assert.NotContains(t, model, "item")
}

func TestTwoWay_Errors(t *testing.T) {
	d, _ := newTestDelegate(t)
	model := map[string]any{"a": 1, "b": 2}
	scope := expr.NewScope(model)

	mixed, _ := bindText(t, d, "a={{ a }}", scope)
	assert.ErrorIs(t, mixed.SetValue(3), ErrNotTwoWay)

	once, _ := bindText(t, d, "[[ a ]]", scope)
	assert.ErrorIs(t, once.SetValue(3), ErrNotTwoWay)

	sum, _ := bindText(t, d, "{{ a + b }}", scope)
	assert.ErrorIs(t, sum.SetValue(3), ErrUnassignable)

	single, _ := bindText(t, d, "{{ a }}", scope)
	single.Close()
	single.Close()
	assert.True(t, single.Closed())
	assert.ErrorIs(t, single.SetValue(3), ErrBindingClosed)
	assert.Equal(t, 1, model["a"])
}

func TestTextBinding_Value(t *testing.T) {
	d, _ := newTestDelegate(t)
	list := []any{1, 2}
	model := map[string]any{"list": list, "n": 3}
	scope := expr.NewScope(model)

	single, _ := bindText(t, d, "{{ list }}", scope)
	assert.Equal(t, list, single.Value())
	assert.Equal(t, "1,2", single.String())

	mixed, _ := bindText(t, d, "n={{ n }}", scope)
	assert.Equal(t, "n=3", mixed.Value())
	assert.Len(t, mixed.Text().Bindings(), 1)
}

func TestText_LiveCountReturnsToZero(t *testing.T) {
	counter := &observe.LiveCounter{}
	d, _ := newTestDelegate(t, WithCounter(counter))
	model := map[string]any{"a": 1, "b": 2, "c": 3}
	scope := expr.NewScope(model)

	var bindings []*TextBinding
	for _, src := range []string{"{{ a }}", "{{ a }}{{ b }}", "[[ c ]]{{ c }}", "[[ a ]]"} {
		tb, _ := bindText(t, d, src, scope)
		bindings = append(bindings, tb)
	}
	assert.Equal(t, 4, counter.Load())

	for _, tb := range bindings {
		tb.Close()
	}
	assert.Equal(t, 0, counter.Load())
	assert.Equal(t, 0, d.Runtime().Live())
}

func TestDelegate_RunLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, _ := newTestDelegate(t)
	rt := d.Runtime()
	model := map[string]any{"x": "a"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx, time.Millisecond) }()

	renders := make(chan string, 4)
	require.NoError(t, rt.Do(ctx, func() {
		_, err := d.BindText("x={{ x }}", expr.NewScope(model), func(s string) { renders <- s })
		assert.NoError(t, err)
	}))

	require.NoError(t, rt.Do(ctx, func() { model["x"] = "b" }))
	select {
	case s := <-renders:
		assert.Equal(t, "x=b", s)
	case <-time.After(time.Second):
		t.Fatal("text not re-rendered")
	}

	require.NoError(t, rt.Do(ctx, d.Close))
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
