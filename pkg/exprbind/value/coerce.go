package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// IsTruthy returns whether a value is truthy.
// Undefined, nil, false, 0, NaN and "" are falsy; everything else is truthy.
func IsTruthy(v any) bool {
	switch val := v.(type) {
	case nil, UndefinedType:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0 && !math.IsNaN(val)
	case int:
		return val != 0
	}

	switch KindOf(v) {
	case KindNull, KindUndefined:
		return false
	case KindBool:
		return reflect.ValueOf(v).Bool()
	case KindString:
		return reflect.ValueOf(v).String() != ""
	case KindNumber:
		f := ToNumber(v)
		return f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}

// numeric returns the float64 form of a Go number.
func numeric(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN(), true
		}
		return f, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// ToNumber converts a value to float64.
func ToNumber(v any) float64 {
	if f, ok := numeric(v); ok {
		return f
	}

	switch KindOf(v) {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindBool:
		if reflect.ValueOf(v).Bool() {
			return 1
		}
		return 0
	case KindString:
		return parseNumber(reflect.ValueOf(v).String())
	}

	if s, ok := v.(fmt.Stringer); ok {
		return parseNumber(s.String())
	}
	return math.NaN()
}

// parseNumber parses a decimal (or 0x hexadecimal) number, ignoring
// surrounding whitespace. The empty string is 0.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return math.NaN()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f
		}
		return math.NaN()
	}
	return f
}

// FormatNumber renders a number in its shortest round-trip form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads exponents to two digits ("1e-07"); drop the padding.
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToString converts a value to its string form.
func ToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return "null"
	case UndefinedType:
		return "undefined"
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		if isNil(v) {
			return "null"
		}
		return val.String()
	}

	if f, ok := numeric(v); ok {
		return FormatNumber(f)
	}

	switch KindOf(v) {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(reflect.ValueOf(v).Bool())
	case KindString:
		return reflect.ValueOf(v).String()
	case KindArray:
		return joinArray(v)
	case KindFunc:
		return "function"
	default:
		return "[object Object]"
	}
}

// joinArray renders an array as its elements joined by ",".
// Undefined and null elements render as empty strings.
func joinArray(v any) string {
	items := ToSlice(v)
	parts := make([]string, len(items))
	for i, item := range items {
		if IsNullish(item) {
			continue
		}
		parts[i] = ToString(item)
	}
	return strings.Join(parts, ",")
}

// ToPrimitive returns primitives unchanged and the string form of
// everything else.
func ToPrimitive(v any) any {
	if IsPrimitive(v) {
		return v
	}
	return ToString(v)
}

// ToSlice returns the elements of an array value, or nil if v is not an array.
func ToSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	if KindOf(v) != KindArray {
		return nil
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
