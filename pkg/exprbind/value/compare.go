package value

import (
	"math"
	"reflect"
)

// StrictEqual implements ===. Values must have the same kind; numbers
// compare numerically (NaN is never equal), references compare by identity.
func StrictEqual(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}

	switch ka {
	case KindUndefined, KindNull:
		return true
	case KindNumber:
		return ToNumber(a) == ToNumber(b)
	case KindString:
		return ToString(a) == ToString(b)
	case KindBool:
		return IsTruthy(a) == IsTruthy(b)
	default:
		return sameReference(a, b)
	}
}

// LooseEqual implements ==.
//
//   - same kind: StrictEqual
//   - null and undefined equal each other and nothing else
//   - number vs string: the string is converted with ToNumber
//   - a boolean operand is converted with ToNumber first
//   - object vs primitive: the object is converted with ToPrimitive
func LooseEqual(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka == kb {
		return StrictEqual(a, b)
	}

	aNullish := ka == KindNull || ka == KindUndefined
	bNullish := kb == KindNull || kb == KindUndefined
	if aNullish || bNullish {
		return aNullish && bNullish
	}

	switch {
	case ka == KindNumber && kb == KindString:
		return ToNumber(a) == ToNumber(b)
	case ka == KindString && kb == KindNumber:
		return ToNumber(a) == ToNumber(b)
	case ka == KindBool:
		return LooseEqual(ToNumber(a), b)
	case kb == KindBool:
		return LooseEqual(a, ToNumber(b))
	case !IsPrimitive(a) && IsPrimitive(b):
		return LooseEqual(ToPrimitive(a), b)
	case IsPrimitive(a) && !IsPrimitive(b):
		return LooseEqual(a, ToPrimitive(b))
	}
	return false
}

// Identical reports whether two values are the same for change detection.
// It differs from StrictEqual in that NaN is identical to NaN.
func Identical(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	if ka == KindNumber {
		fa, fb := ToNumber(a), ToNumber(b)
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		return fa == fb
	}
	return StrictEqual(a, b)
}

// sameReference compares reference-like values by identity and other
// values (structs, arrays) field by field.
func sameReference(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	return sameValue(ra, rb)
}

// sameValue walks two values of the same type. References inside structs
// and arrays compare by identity, so a field holding a slice or map never
// reaches the == operator.
func sameValue(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer, reflect.Func:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		ea, eb := a.Elem(), b.Elem()
		if ea.Type() != eb.Type() {
			return false
		}
		return sameValue(ea, eb)
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	}
	return false
}

// Compare orders two values for the relational operators. It returns
// -1, 0 or 1, and ok=false when the values are unordered (NaN involved).
// Two strings compare lexicographically; anything else numerically.
func Compare(a, b any) (int, bool) {
	pa, pb := ToPrimitive(a), ToPrimitive(b)
	if KindOf(pa) == KindString && KindOf(pb) == KindString {
		sa, sb := ToString(pa), ToString(pb)
		switch {
		case sa < sb:
			return -1, true
		case sa > sb:
			return 1, true
		default:
			return 0, true
		}
	}

	fa, fb := ToNumber(pa), ToNumber(pb)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	default:
		return 0, true
	}
}
