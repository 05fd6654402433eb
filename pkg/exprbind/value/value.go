package value

import (
	"encoding/json"
	"errors"
	"reflect"
)

// Sentinel errors for property access and calls.
var (
	// ErrNotSettable indicates a property cannot be written on the target.
	ErrNotSettable = errors.New("property not settable")

	// ErrNotCallable indicates a call target is not a function.
	ErrNotCallable = errors.New("value is not callable")
)

// UndefinedType is the type of Undefined.
type UndefinedType struct{}

// String implements fmt.Stringer.
func (UndefinedType) String() string { return "undefined" }

// Undefined is the value of missing properties and missing arguments.
// It is distinct from nil, which is the null value.
var Undefined = UndefinedType{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(UndefinedType)
	return ok
}

// IsNullish reports whether v is Undefined or null.
func IsNullish(v any) bool {
	return IsUndefined(v) || isNil(v)
}

// Method is a function that receives the object it was called on.
// For a.f(x) the receiver is a; for f(x) it is the model of the scope.
type Method func(this any, args ...any) (any, error)

// Object is implemented by model types that manage their own properties.
type Object interface {
	Get(key string) (any, bool)
	Set(key string, v any) error
	Keys() []string
}

// Kind classifies a value for coercion purposes.
type Kind int

// Value kinds.
const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindFunc
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFunc:
		return "function"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of v.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case UndefinedType:
		return KindUndefined
	case bool:
		return KindBool
	case string:
		return KindString
	case float64, int, int64, float32, int32, int16, int8, uint, uint64, uint32, uint16, uint8, json.Number:
		return KindNumber
	case Method:
		return KindFunc
	case *Map, Object:
		return KindObject
	case []any:
		return KindArray
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		return KindArray
	case reflect.Array:
		return KindArray
	case reflect.Func:
		if rv.IsNil() {
			return KindNull
		}
		return KindFunc
	case reflect.Map, reflect.Pointer, reflect.Interface, reflect.Chan:
		if rv.IsNil() {
			return KindNull
		}
		return KindObject
	default:
		return KindObject
	}
}

// isNil reports whether v is nil or a typed nil reference.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// IsPrimitive reports whether v is Undefined, null, a bool, a number or a string.
func IsPrimitive(v any) bool {
	switch KindOf(v) {
	case KindUndefined, KindNull, KindBool, KindNumber, KindString:
		return true
	default:
		return false
	}
}

// Map is an insertion-ordered object. Object literals evaluate to *Map.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// MapOf creates a Map from alternating key/value pairs.
// It panics if a key is not a string.
func MapOf(kv ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Put(kv[i].(string), kv[i+1])
	}
	return m
}

// Get returns the value for key.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores v under key, appending new keys to the key order.
func (m *Map) Set(key string, v any) error {
	m.Put(key, v)
	return nil
}

// Put is Set without an error result.
func (m *Map) Put(key string, v any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes key.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// MarshalJSON encodes the map as a JSON object in key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range m.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(Plain(m.values[k]))
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

// Plain converts Undefined to nil and leaves other values unchanged.
// It is used before handing values to encoders.
func Plain(v any) any {
	if IsUndefined(v) {
		return nil
	}
	return v
}
