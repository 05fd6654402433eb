/*
Package filter provides the filter registry used by the pipe operator.

A filter is a named pair of transforms. Forward runs when a binding is
read and Inverse, when present, runs when a two-way binding is written:

	r := filter.MustNewRegistry(filter.WithBuiltins())
	r.MustRegister("plusN",
	    func(v any, args ...any) (any, error) {
	        return value.ToNumber(v) + value.ToNumber(args[0]), nil
	    },
	    func(v any, args ...any) (any, error) {
	        return value.ToNumber(v) - value.ToNumber(args[0]), nil
	    },
	)

In "bar | plusN(bat) | plusN(boo)" reads apply the filters left to right
and writes apply the inverses right to left.

# Built-ins

	tokenList    {a: true, b: false} renders "a"
	styleObject  {backgroundColor: "blue"} renders "background-color: blue"
*/
package filter
