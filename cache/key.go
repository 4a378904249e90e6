package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Key identifies one logical call: a function name applied to a
// canonical encoding of its arguments. Equal calls always produce equal
// keys, across process runs.
type Key string

// Kwargs carries keyword arguments. When the final argument passed to a
// wrapped function is a Kwargs value it is encoded by keyword name
// rather than by position, so callers can name optional parameters
// without disturbing key derivation for the positional ones.
type Kwargs map[string]any

// BuildKey derives the cache key for a call to name with the given
// positional and keyword arguments. Keyword arguments are sorted by
// name and every value is encoded recursively into a stable textual
// representation. Values that depend on object identity rather than
// value (functions, channels, and the like) fail with
// *UnhashableArgumentError.
func BuildKey(name string, args []any, kwargs Kwargs) (Key, error) {
	parts := make([]string, 0, len(args)+len(kwargs))
	for i, arg := range args {
		enc, err := encodeValue(reflect.ValueOf(arg))
		if err != nil {
			err.Position = i
			return "", err
		}
		parts = append(parts, enc)
	}

	names := make([]string, 0, len(kwargs))
	for k := range kwargs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		enc, err := encodeValue(reflect.ValueOf(kwargs[k]))
		if err != nil {
			err.Position = -1
			err.Keyword = k
			return "", err
		}
		parts = append(parts, k+"="+enc)
	}

	return Key(name + "(" + strings.Join(parts, ", ") + ")"), nil
}

var timeType = reflect.TypeOf(time.Time{})

// encodeValue renders v into a canonical string. The representation is
// value-based: two arguments encode identically iff they hold equal
// values, regardless of how they were constructed.
func encodeValue(v reflect.Value) (string, *UnhashableArgumentError) {
	if !v.IsValid() {
		return "nil", nil
	}

	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil

	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil

	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil

	case reflect.String:
		return strconv.Quote(v.String()), nil

	case reflect.Slice, reflect.Array:
		elems := make([]string, v.Len())
		for i := 0; i < v.Len(); i++ {
			enc, err := encodeValue(v.Index(i))
			if err != nil {
				return "", err
			}
			elems[i] = enc
		}
		return "[" + strings.Join(elems, ", ") + "]", nil

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return "", &UnhashableArgumentError{Type: v.Type().String()}
		}
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		elems := make([]string, len(keys))
		for i, k := range keys {
			enc, err := encodeValue(v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())))
			if err != nil {
				return "", err
			}
			elems[i] = strconv.Quote(k) + ": " + enc
		}
		return "{" + strings.Join(elems, ", ") + "}", nil

	case reflect.Pointer:
		if v.IsNil() {
			return "nil", nil
		}
		return encodeValue(v.Elem())

	case reflect.Interface:
		if v.IsNil() {
			return "nil", nil
		}
		return encodeValue(v.Elem())

	case reflect.Struct:
		if v.Type() == timeType {
			return strconv.Quote(v.Interface().(time.Time).UTC().Format(time.RFC3339Nano)), nil
		}
		t := v.Type()
		names := make([]string, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				names = append(names, t.Field(i).Name)
			}
		}
		if len(names) == 0 {
			return "", &UnhashableArgumentError{Type: t.String()}
		}
		sort.Strings(names)
		elems := make([]string, len(names))
		for i, name := range names {
			enc, err := encodeValue(v.FieldByName(name))
			if err != nil {
				return "", err
			}
			elems[i] = fmt.Sprintf("%s: %s", name, enc)
		}
		return t.Name() + "{" + strings.Join(elems, ", ") + "}", nil

	default:
		// Func, Chan, UnsafePointer, Complex, Uintptr: identity, not value.
		return "", &UnhashableArgumentError{Type: v.Type().String()}
	}
}
