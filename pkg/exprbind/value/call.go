package value

import (
	"fmt"
	"math"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Convert converts v to a value assignable to t. Numbers, strings and
// booleans are coerced with the package rules; Undefined and nil become the
// zero value of t.
func Convert(v any, t reflect.Type) (reflect.Value, error) {
	if IsNullish(v) {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(ToString(v)).Convert(t), nil
	case reflect.Bool:
		return reflect.ValueOf(IsTruthy(v)).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, err := integral(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(int64(f)).Convert(t), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f, err := integral(v, t)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(uint64(f)).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(ToNumber(v)).Convert(t), nil
	}

	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", v, t)
}

// integral converts v to a whole number that fits the integer type t.
// NaN, infinities, fractions and out-of-range numbers are rejected rather
// than truncated, so a value written to an integer field reads back equal.
func integral(v any, t reflect.Type) (float64, error) {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s is not a number", ErrNotSettable, ToString(v))
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrNotSettable, ToString(v))
	}

	bits := t.Bits()
	var lo, hi float64
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		lo, hi = -math.Ldexp(1, bits-1), math.Ldexp(1, bits-1)
	default:
		lo, hi = 0, math.Ldexp(1, bits)
	}
	if f < lo || f >= hi {
		return 0, fmt.Errorf("%w: %s overflows %s", ErrNotSettable, ToString(v), t)
	}
	return f, nil
}

// Call invokes fn with this as the receiver for Method values.
// Other functions are called reflectively: arguments are converted to the
// parameter types, missing arguments are zero values, and a trailing error
// result is returned as the error.
func Call(fn, this any, args []any) (any, error) {
	switch f := fn.(type) {
	case Method:
		return f(this, args...)
	case func(this any, args ...any) (any, error):
		return f(this, args...)
	case func(args ...any) (any, error):
		return f(args...)
	case func(args ...any) any:
		return f(args...), nil
	}

	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.Kind() != reflect.Func || rv.IsNil() {
		return Undefined, fmt.Errorf("%w: %s", ErrNotCallable, KindOf(fn))
	}

	t := rv.Type()
	in := make([]reflect.Value, 0, len(args))
	for i := 0; i < t.NumIn(); i++ {
		if t.IsVariadic() && i == t.NumIn()-1 {
			elem := t.In(i).Elem()
			for j := i; j < len(args); j++ {
				cv, err := Convert(args[j], elem)
				if err != nil {
					return Undefined, fmt.Errorf("argument %d: %w", j, err)
				}
				in = append(in, cv)
			}
			break
		}

		var arg any = Undefined
		if i < len(args) {
			arg = args[i]
		}
		cv, err := Convert(arg, t.In(i))
		if err != nil {
			return Undefined, fmt.Errorf("argument %d: %w", i, err)
		}
		in = append(in, cv)
	}

	return results(rv.Call(in))
}

// results maps reflective call results to (value, error).
func results(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return Undefined, nil
	}

	var err error
	last := out[len(out)-1]
	if last.Type().Implements(errorType) {
		if !isNil(last.Interface()) {
			err = last.Interface().(error)
		}
		out = out[:len(out)-1]
	}

	if len(out) == 0 {
		return Undefined, err
	}
	return out[0].Interface(), err
}
