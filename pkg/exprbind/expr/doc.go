/*
Package expr parses and evaluates binding expressions.

# Overview

A binding expression is a small JavaScript-like expression embedded in a
template. It is parsed once into an immutable Expression, then evaluated
against a Scope: a chain of named bindings ending in a model object.
Evaluation can report every property it reads to a Recorder, which is how
observers learn what to dirty-check. Expressions that denote a reference
can also be written with EvaluateAndSet.

# Expression Syntax

	<expression> := <pipeline> [ 'as' ident ]
	              | ident [ ',' ident ] 'in' <pipeline>
	<pipeline>   := <conditional> { '|' ident [ '(' args ')' ] }
	<conditional>:= <binary> [ '?' <conditional> ':' <conditional> ]

Precedence, tightest first:

	. [] ()          member, index, call
	! - +            unary
	* / %            multiplicative
	+ -              additive
	< <= > >=        relational
	== != === !==    equality
	&&               logical and
	||               logical or
	? :              conditional
	|                filter
	as / in          scope clause (top level only)

Literals: numbers (1, 1.5, .5, 1e3), strings in single or double quotes,
true, false, null, undefined, arrays [a, b] and objects {k: v, "k2": v}.
An empty source evaluates to the model.

# Coercion

Operators follow dynamic-typing rules, spelled out in package value:

	a + b      concatenates if either primitive operand is a string
	a - b      numeric (value.ToNumber); "5" - 2 is 3
	a == b     loose: 1 == "1", null == undefined
	a === b    strict: same kind and value, references by identity
	a && b     returns a if falsy, else b
	a || b     returns a if truthy, else b
	a < b      lexicographic for two strings, numeric otherwise

Member access on null, undefined or a missing key yields undefined.

# Filters

	bar | plusN(bat) | plusN(boo)

Filters resolve through WithFilters first, then through a function of the
same name in scope. Reads apply filters left to right; writes apply their
inverses right to left and fail with ErrUnassignable when a filter has
none.

# Examples

	v, _ := expr.Eval("(a.b + c.d)/e - f*g.h", model)

	ev := expr.New(expr.WithFilters(registry))
	x, _ := ev.Parse("user.name | upper")
	v, err := ev.Evaluate(x, expr.NewScope(model))
	err = ev.EvaluateAndSet(x, expr.NewScope(model), "Sally")
*/
package expr
