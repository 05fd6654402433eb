/*
Package value implements the dynamic value model shared by the expression
parser, evaluator, filters and observers.

# Overview

Models are plain Go values. Expressions see them through a small set of
kinds, and every operator coerces operands with the rules in this package:

	Undefined   value.Undefined (missing property, missing argument)
	Null        nil, nil pointers/maps/slices
	Bool        bool and named bool types
	Number      every Go integer and float kind, json.Number
	String      string and named string types
	Array       slices and arrays
	Object      maps with string keys, structs, *Map, Object implementations
	Func        Go functions and Method values

# Coercion

ToBoolean (IsTruthy) is false for Undefined, nil, false, 0, NaN and "".
Everything else is truthy, including empty arrays and objects.

ToNumber maps Undefined to NaN, nil to 0, booleans to 1/0, and parses
strings as trimmed decimal numbers ("" is 0, anything unparsable is NaN).
Objects are NaN unless they implement fmt.Stringer, in which case the
string form is parsed.

ToString renders Undefined as "undefined", nil as "null", numbers in the
shortest round-trip form (1, -1, 1.5, NaN, Infinity, 1e+21), arrays as
their elements joined by "," and other objects as "[object Object]".

Operators build on those three:

	+            string concatenation if either primitive operand is a string,
	             numeric addition otherwise
	- * / %      numeric; % truncates toward zero like math.Mod
	< <= > >=    lexicographic when both primitives are strings, numeric
	             otherwise; comparisons involving NaN are false
	== !=        loose equality (see LooseEqual)
	=== !==      strict equality (see StrictEqual)

# Access

Get and Set read and write properties of any supported container. Reading
through nil, Undefined or a missing key yields Undefined rather than an
error, so expressions such as foo.bar.baz evaluate safely against partial
models. Struct fields are addressed by Go name or json tag; Set requires a
pointer to the struct.

Object literals evaluate to *Map, an insertion-ordered object, so filters
that enumerate keys see them in source order.
*/
package value
