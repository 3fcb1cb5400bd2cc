package dareg

// Filter is a filter document node in the server's JSON filter language.
// Build nodes with Where, And, Or and Not, or write the map literally.
type Filter map[string]any

// Cond starts a condition on one dotted field path.
type Cond struct {
	path string
}

// Where starts a condition on path, e.g. "status" or "metadata.sample.ph".
func Where(path string) Cond { return Cond{path: path} }

func (c Cond) op(name string, v any) Filter {
	return Filter{c.path: map[string]any{name: v}}
}

// Eq matches an equal value.
func (c Cond) Eq(v any) Filter { return c.op("$eq", v) }

// Ne matches any other value.
func (c Cond) Ne(v any) Filter { return c.op("$ne", v) }

// Gt matches greater values.
func (c Cond) Gt(v any) Filter { return c.op("$gt", v) }

// Gte matches greater or equal values.
func (c Cond) Gte(v any) Filter { return c.op("$gte", v) }

// Lt matches smaller values.
func (c Cond) Lt(v any) Filter { return c.op("$lt", v) }

// Lte matches smaller or equal values.
func (c Cond) Lte(v any) Filter { return c.op("$lte", v) }

// Contains matches arrays holding v, or strings containing it.
func (c Cond) Contains(v any) Filter { return c.op("$contains", v) }

// Regex matches strings containing s, ignoring case.
func (c Cond) Regex(s string) Filter { return c.op("$regex", s) }

// In matches any of vs.
func (c Cond) In(vs ...any) Filter { return c.op("$in", vs) }

// Nin matches none of vs.
func (c Cond) Nin(vs ...any) Filter { return c.op("$nin", vs) }

// Null matches absent or null fields when isNull is true.
func (c Cond) Null(isNull bool) Filter { return c.op("$null", isNull) }

// And matches when every child matches.
func And(children ...Filter) Filter { return Filter{"$and": list(children)} }

// Or matches when any child matches.
func Or(children ...Filter) Filter { return Filter{"$or": list(children)} }

// Not inverts child.
func Not(child Filter) Filter { return Filter{"$not": child.document()} }

func list(children []Filter) []any {
	out := make([]any, len(children))
	for i, c := range children {
		out[i] = c.document()
	}
	return out
}

// document returns f as plain maps and slices.
func (f Filter) document() map[string]any {
	if f == nil {
		return nil
	}
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case Filter:
		return t.document()
	case map[string]any:
		return Filter(t).document()
	case []Filter:
		return list(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return v
	}
}
