// Package value models the dynamically typed JSON values that flow through
// filter expressions and record attributes as an explicit tagged union.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind is the JSON type of a Value.
type Kind uint8

// Value kinds. Names match JSON-Schema primitive types.
const (
	Null Kind = iota
	String
	Integer
	Number
	Boolean
	Array
	Object
)

var kindNames = [...]string{
	Null:    "null",
	String:  "string",
	Integer: "integer",
	Number:  "number",
	Boolean: "boolean",
	Array:   "array",
	Object:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an immutable JSON value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	list []Value
	obj  *Map
}

// NullValue returns JSON null.
func NullValue() Value { return Value{} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: String, s: s} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: Integer, i: i} }

// Float wraps a floating point number.
func Float(f float64) Value { return Value{kind: Number, f: f} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: Boolean, b: b} }

// List wraps a slice of values.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: Array, list: items}
}

// Obj wraps an ordered map.
func Obj(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: Object, obj: m}
}

// Kind returns the value's JSON type.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == Null }

// IsNumeric reports whether v is an integer or a number.
func (v Value) IsNumeric() bool { return v.kind == Integer || v.kind == Number }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == String }

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == Integer }

// AsFloat returns the numeric payload widened to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case Integer:
		return float64(v.i), true
	case Number:
		return v.f, true
	default:
		return 0, false
	}
}

// IsZero reports whether v is JSON-falsy: null, false, zero, "" or an empty
// array or object.
func (v Value) IsZero() bool {
	switch v.kind {
	case String:
		return v.s == ""
	case Integer:
		return v.i == 0
	case Number:
		return v.f == 0
	case Boolean:
		return !v.b
	case Array:
		return len(v.list) == 0
	case Object:
		return v.obj.Len() == 0
	default:
		return true
	}
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == Boolean }

// AsList returns the array elements. The slice must not be modified.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == Array }

// AsMap returns the object payload.
func (v Value) AsMap() (*Map, bool) { return v.obj, v.kind == Object }

// TypeName is the name used in type-mismatch messages for the value's runtime type.
func (v Value) TypeName() string {
	switch v.kind {
	case String:
		return "str"
	case Integer:
		return "int"
	case Number:
		return "float"
	case Boolean:
		return "bool"
	case Array:
		return "list"
	case Object:
		return "dict"
	default:
		return "NoneType"
	}
}

// Interface converts v into plain Go values (map[string]any, []any, ...).
func (v Value) Interface() any {
	switch v.kind {
	case String:
		return v.s
	case Integer:
		return v.i
	case Number:
		return v.f
	case Boolean:
		return v.b
	case Array:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.Keys() {
			item, _ := v.obj.Get(k)
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Text renders v as display text: strings verbatim, everything else as JSON.
func (v Value) Text() string {
	if v.kind == String {
		return v.s
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

func (v Value) String() string { return v.Text() }

// Equal reports deep equality. Integers and numbers compare by numeric value.
func Equal(a, b Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		if a.kind == Integer && b.kind == Integer {
			return a.i == b.i
		}
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return af == bf
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case String:
		return a.s == b.s
	case Boolean:
		return a.b == b.b
	case Array:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case Object:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for _, k := range a.obj.Keys() {
			av, _ := a.obj.Get(k)
			bv, ok := b.obj.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two values of comparable kinds. ok is false when the kinds
// cannot be ordered against each other (e.g. a string and a number).
func Compare(a, b Value) (cmp int, ok bool) {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		if a.kind == Integer && b.kind == Integer {
			return compareOrdered(a.i, b.i), true
		}
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		if math.IsNaN(af) || math.IsNaN(bf) {
			return 0, false
		}
		return compareOrdered(af, bf), true
	case a.kind == String && b.kind == String:
		return strings.Compare(a.s, b.s), true
	case a.kind == Boolean && b.kind == Boolean:
		return compareOrdered(boolRank(a.b), boolRank(b.b)), true
	default:
		return 0, false
	}
}

func compareOrdered[T int64 | float64 | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Contains implements containment: substring for strings, element or subset
// membership for arrays, key/value subset for objects.
func Contains(haystack, needle Value) bool {
	switch haystack.kind {
	case String:
		s, ok := needle.AsString()
		return ok && strings.Contains(haystack.s, s)
	case Array:
		if items, ok := needle.AsList(); ok {
			for _, item := range items {
				if !Contains(haystack, item) {
					return false
				}
			}
			return true
		}
		for _, item := range haystack.list {
			if Equal(item, needle) {
				return true
			}
		}
		return false
	case Object:
		sub, ok := needle.AsMap()
		if !ok {
			return false
		}
		for _, k := range sub.Keys() {
			want, _ := sub.Get(k)
			got, ok := haystack.obj.Get(k)
			if !ok {
				return false
			}
			if got.kind == Object || got.kind == Array {
				if !Contains(got, want) {
					return false
				}
				continue
			}
			if !Equal(got, want) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ContainsFold reports whether a string value contains s, ignoring case.
// An ASCII s folds only ASCII letters of the value, so U+212A KELVIN SIGN
// does not match "k", the same as SQL lower().
func ContainsFold(v Value, s string) bool {
	str, ok := v.AsString()
	if !ok {
		return false
	}
	if isASCII(s) {
		return strings.Contains(asciiLower(str), asciiLower(s))
	}
	return strings.Contains(strings.ToLower(str), strings.ToLower(s))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// Lookup walks nested objects along path. Missing keys and non-object
// intermediates yield ok=false.
func Lookup(root *Map, path []string) (Value, bool) {
	if root == nil || len(path) == 0 {
		return Value{}, false
	}
	cur, ok := root.Get(path[0])
	if !ok {
		return Value{}, false
	}
	for _, seg := range path[1:] {
		m, isMap := cur.AsMap()
		if !isMap {
			return Value{}, false
		}
		if cur, ok = m.Get(seg); !ok {
			return Value{}, false
		}
	}
	return cur, true
}

// FromAny converts plain Go values (as produced by encoding/json or yaml.v3)
// into a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case string:
		return Str(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return Float(float64(t)), nil
		}
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		return parseNumber(t.String())
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(t) {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, v)
		}
		return Obj(m), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", x)
	}
}
