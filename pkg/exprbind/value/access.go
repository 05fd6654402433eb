package value

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// structMeta caches the property names of a struct type.
type structMeta struct {
	fields map[string][]int
	order  []string
}

var metaCache sync.Map

// getStructMeta returns field lookup data for t, keyed by Go name and json tag.
func getStructMeta(t reflect.Type) *structMeta {
	if m, ok := metaCache.Load(t); ok {
		return m.(*structMeta)
	}

	meta := &structMeta{fields: make(map[string][]int)}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		if idx := strings.Index(tag, ","); idx != -1 {
			tag = tag[:idx]
		}
		meta.fields[f.Name] = f.Index
		if tag != "" {
			meta.fields[tag] = f.Index
			name = tag
		}
		meta.order = append(meta.order, name)
	}

	actual, _ := metaCache.LoadOrStore(t, meta)
	return actual.(*structMeta)
}

// Get returns obj[key]. Missing keys and nullish objects yield Undefined.
// Arrays and strings expose "length"; array indexes use ToNumber(key),
// object keys use ToString(key).
func Get(obj, key any) any {
	switch o := obj.(type) {
	case nil, UndefinedType:
		return Undefined
	case map[string]any:
		if v, ok := o[ToString(key)]; ok {
			return v
		}
		return Undefined
	case Object:
		if isNil(o) {
			return Undefined
		}
		if v, ok := o.Get(ToString(key)); ok {
			return v
		}
		return Undefined
	case []any:
		return indexArray(reflect.ValueOf(o), key)
	case string:
		return indexString(o, key)
	}

	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return Undefined
		}
		k := reflect.ValueOf(ToString(key)).Convert(rv.Type().Key())
		v := rv.MapIndex(k)
		if !v.IsValid() {
			return Undefined
		}
		return v.Interface()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Undefined
		}
		return indexArray(rv, key)
	case reflect.String:
		return indexString(rv.String(), key)
	case reflect.Pointer:
		if rv.IsNil() {
			return Undefined
		}
		if rv.Elem().Kind() == reflect.Struct {
			return getField(rv, rv.Elem(), ToString(key))
		}
		return Get(rv.Elem().Interface(), key)
	case reflect.Struct:
		return getField(rv, rv, ToString(key))
	}
	return Undefined
}

// getField reads a struct field or returns a bound method value.
// recv is the original value (possibly a pointer) used for method lookup.
func getField(recv, sv reflect.Value, name string) any {
	meta := getStructMeta(sv.Type())
	if idx, ok := meta.fields[name]; ok {
		return sv.FieldByIndex(idx).Interface()
	}
	if m := recv.MethodByName(name); m.IsValid() {
		return m.Interface()
	}
	return Undefined
}

// arrayIndex converts key to a valid index for an array of length n.
func arrayIndex(key any, n int) (int, bool) {
	f := ToNumber(key)
	if math.IsNaN(f) || f != math.Trunc(f) || f < 0 || f >= float64(n) {
		return 0, false
	}
	return int(f), true
}

func indexArray(rv reflect.Value, key any) any {
	if s, ok := key.(string); ok && s == "length" {
		return float64(rv.Len())
	}
	i, ok := arrayIndex(key, rv.Len())
	if !ok {
		return Undefined
	}
	return rv.Index(i).Interface()
}

func indexString(s string, key any) any {
	if k, ok := key.(string); ok && k == "length" {
		return float64(utf8.RuneCountInString(s))
	}
	runes := []rune(s)
	i, ok := arrayIndex(key, len(runes))
	if !ok {
		return Undefined
	}
	return string(runes[i])
}

// Set performs obj[key] = v. Typed containers convert v to the element or
// field type. Structs must be addressed through a pointer.
func Set(obj, key, v any) error {
	switch o := obj.(type) {
	case map[string]any:
		if o == nil {
			return fmt.Errorf("%w: nil map", ErrNotSettable)
		}
		o[ToString(key)] = v
		return nil
	case Object:
		if isNil(o) {
			return fmt.Errorf("%w: nil object", ErrNotSettable)
		}
		return o.Set(ToString(key), v)
	}

	if IsNullish(obj) {
		return fmt.Errorf("%w: cannot set %q on %s", ErrNotSettable, ToString(key), KindOf(obj))
	}

	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%w: map key type %s", ErrNotSettable, rv.Type().Key())
		}
		cv, err := Convert(v, rv.Type().Elem())
		if err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(ToString(key)).Convert(rv.Type().Key()), cv)
		return nil
	case reflect.Slice:
		i, ok := arrayIndex(key, rv.Len())
		if !ok {
			return fmt.Errorf("%w: index %s out of range", ErrNotSettable, ToString(key))
		}
		cv, err := Convert(v, rv.Type().Elem())
		if err != nil {
			return err
		}
		rv.Index(i).Set(cv)
		return nil
	case reflect.Pointer:
		elem := rv.Elem()
		if elem.Kind() != reflect.Struct {
			return Set(elem.Interface(), key, v)
		}
		name := ToString(key)
		idx, ok := getStructMeta(elem.Type()).fields[name]
		if !ok {
			return fmt.Errorf("%w: no field %q in %s", ErrNotSettable, name, elem.Type())
		}
		field := elem.FieldByIndex(idx)
		cv, err := Convert(v, field.Type())
		if err != nil {
			return err
		}
		field.Set(cv)
		return nil
	}
	return fmt.Errorf("%w: cannot set %q on %s", ErrNotSettable, ToString(key), KindOf(obj))
}

// Keys returns the property names of an object. Plain maps are sorted;
// *Map and Object implementations keep their own order; structs list
// fields in declaration order.
func Keys(obj any) []string {
	switch o := obj.(type) {
	case Object:
		if isNil(o) {
			return nil
		}
		return o.Keys()
	case map[string]any:
		keys := make([]string, 0, len(o))
		for k := range o {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return keys
	case reflect.Struct:
		meta := getStructMeta(rv.Type())
		out := make([]string, len(meta.order))
		copy(out, meta.order)
		return out
	}
	return nil
}
