package doc

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the property value types.
// Only Null, String, Int, Bool, List and Map implement it.
// There is no float variant: property values feed the canonical encoding
// and content hash, which must be deterministic.
type Value interface {
	value()
}

// Null is the explicit null value. In a partial property update it removes
// the key.
type Null struct{}

func (Null) value() {}

// String is a string property value.
type String string

func (String) value() {}

// Int is an integer property value. Always int64.
type Int int64

func (Int) value() {}

// Bool is a boolean property value.
type Bool bool

func (Bool) value() {}

// List is an ordered list of values.
type List []Value

func (List) value() {}

// Map maps string keys to values. Node properties are Maps.
// Use SortedKeys for deterministic iteration.
type Map map[string]Value

func (Map) value() {}

// Clone returns a shallow copy of m. A nil map clones to nil.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Merge returns a new map holding m updated by partial.
// Keys whose partial value is Null are removed. m is not modified.
func (m Map) Merge(partial Map) Map {
	out := make(Map, len(m)+len(partial))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range partial {
		if _, ok := v.(Null); ok {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Str returns the string stored under key, or "" if absent or not a String.
func (m Map) Str(key string) string {
	if s, ok := m[key].(String); ok {
		return string(s)
	}
	return ""
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 orders strings by UTF-16 code units, which differs from
// Go's byte order for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return len(ua) - len(ub)
}

// EqualValues reports whether two values are structurally equal.
// A nil Map and an empty Map are equal.
func EqualValues(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !EqualValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok {
			return false
		}
		return equalMaps(av, bv)
	default:
		return false
	}
}

func equalMaps(a, b Map) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !EqualValues(v, w) {
			return false
		}
	}
	return true
}

// ValueOf converts a decoded Go value into a Value.
// Accepts the shapes produced by encoding/json (with UseNumber) and yaml.v3.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case interface{ Int64() (int64, error) }:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %v: floats are not allowed", val)
		}
		return Int(n), nil
	case float64, float32:
		return nil, fmt.Errorf("floats are not allowed: %v", val)
	case []any:
		out := make(List, len(val))
		for i, elem := range val {
			ev, err := ValueOf(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(val))
		for k, elem := range val {
			ev, err := ValueOf(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = ev
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// MapOf converts a decoded object into a Map.
func MapOf(v map[string]any) (Map, error) {
	if len(v) == 0 {
		return nil, nil
	}
	val, err := ValueOf(v)
	if err != nil {
		return nil, err
	}
	return val.(Map), nil
}

// FormatValue renders a value for diagnostics.
func FormatValue(v Value) string {
	b, err := MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return strings.TrimSpace(string(b))
}
