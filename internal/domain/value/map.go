package value

import "sort"

// Map is an insertion-ordered string-keyed map of values.
type Map struct {
	keys []string
	m    map[string]Value
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{m: make(map[string]Value)}
}

// Len returns the number of keys.
func (o *Map) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns keys in insertion order. The slice must not be modified.
func (o *Map) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Get returns the value stored under key.
func (o *Map) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.m[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Map) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores v under key. Existing keys keep their position.
func (o *Map) Set(key string, v Value) {
	if _, ok := o.m[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.m[key] = v
}

// Clone returns a shallow copy.
func (o *Map) Clone() *Map {
	c := NewMap()
	for _, k := range o.Keys() {
		c.Set(k, o.m[k])
	}
	return c
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
