package sqlstore

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lib/pq"

	"github.com/kailas-cloud/dareg/internal/domain/search/filter"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// dialect renders the SQL that differs between backends.
type dialect interface {
	name() string
	// rebind rewrites $N placeholders of a static query.
	rebind(query string) string
	placeholder(n int) string
	inIDs(b *builder, ids []string) string
	// condition renders one filter condition, or reports ok=false when the
	// condition cannot be narrowed in SQL.
	condition(b *builder, c filter.Condition) (sql string, ok bool)
}

// builder accumulates positional arguments for one statement.
type builder struct {
	d    dialect
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return b.d.placeholder(len(b.args))
}

// pushdown renders n as a WHERE fragment admitting a superset of the rows n
// matches. Records are re-checked with filter.Predicate.Match after loading,
// so a fragment may be loose but must never exclude a matching record.
func (b *builder) pushdown(n filter.Node) (string, bool) {
	mark := len(b.args)
	switch t := n.(type) {
	case filter.And:
		var parts []string
		for _, c := range t.Children {
			if s, ok := b.pushdown(c); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return "(" + strings.Join(parts, " AND ") + ")", true
	case filter.Or:
		if len(t.Children) == 0 {
			return "1 = 1", true
		}
		parts := make([]string, 0, len(t.Children))
		for _, c := range t.Children {
			s, ok := b.pushdown(c)
			if !ok {
				b.args = b.args[:mark]
				return "", false
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, " OR ") + ")", true
	case filter.Condition:
		s, ok := b.d.condition(b, t)
		if !ok {
			b.args = b.args[:mark]
		}
		return s, ok
	default:
		// $not and $ne style negations cannot be narrowed safely.
		return "", false
	}
}

// inList renders $in as a disjunction of equality tests.
func inList(b *builder, c filter.Condition) (string, bool) {
	items, _ := c.Value.AsList()
	if len(items) == 0 {
		return "1 = 0", true
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := b.d.condition(b, filter.Condition{Field: c.Field, Path: c.Path, Op: filter.OpEq, Value: item})
		if !ok {
			return "", false
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, " OR ") + ")", true
}

var comparators = map[filter.Op]string{
	filter.OpEq:  "=",
	filter.OpGt:  ">",
	filter.OpGte: ">=",
	filter.OpLt:  "<",
	filter.OpLte: "<=",
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// --- postgres ---

type postgres struct{}

func (postgres) name() string { return "postgres" }

func (postgres) rebind(query string) string { return query }

func (postgres) placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgres) inIDs(b *builder, ids []string) string {
	return "id = ANY(" + b.arg(pq.Array(ids)) + ")"
}

func (postgres) condition(b *builder, c filter.Condition) (string, bool) {
	if c.Op == filter.OpIn {
		return inList(b, c)
	}
	path := b.arg(pq.Array(c.Path)) + "::text[]"
	node := "attributes #> " + path
	text := "(attributes #>> " + path + ")"
	typ := "jsonb_typeof(" + node + ")"

	switch c.Op {
	case filter.OpEq, filter.OpGt, filter.OpGte, filter.OpLt, filter.OpLte:
		cmp := comparators[c.Op]
		switch c.Value.Kind() {
		case value.Null:
			if c.Op != filter.OpEq {
				return "", false
			}
			return text + " IS NULL", true
		case value.String:
			s, _ := c.Value.AsString()
			if c.Op == filter.OpEq {
				return text + " = " + b.arg(s), true
			}
			return fmt.Sprintf("(%s = 'string' AND %s COLLATE \"C\" %s %s)", typ, text, cmp, b.arg(s)), true
		case value.Integer:
			i, _ := c.Value.AsInt()
			v := b.arg(i)
			return fmt.Sprintf(
				"(CASE WHEN %s = 'number' THEN (%s::numeric %s %s OR %s::float8 %s %s::float8) ELSE FALSE END)",
				typ, text, cmp, v, text, cmp, v,
			), true
		case value.Number:
			f, _ := c.Value.AsFloat()
			return fmt.Sprintf("(CASE WHEN %s = 'number' THEN %s::float8 %s %s ELSE FALSE END)",
				typ, text, cmp, b.arg(f)), true
		case value.Boolean:
			if c.Op != filter.OpEq {
				return "", false
			}
			bv, _ := c.Value.AsBool()
			return text + " = " + b.arg(fmt.Sprint(bv)), true
		default:
			return "", false
		}
	case filter.OpNull:
		if want, _ := c.Value.AsBool(); want {
			return text + " IS NULL", true
		}
		return text + " IS NOT NULL", true
	case filter.OpContains:
		s, ok := c.Value.AsString()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("(%s IN ('array', 'object') OR strpos(%s, %s) > 0)", typ, text, b.arg(s)), true
	case filter.OpRegex:
		s := c.Value.Text()
		if !isASCII(s) {
			return "", false
		}
		return fmt.Sprintf("%s ILIKE %s ESCAPE '\\'", text, b.arg("%"+escapeLike(s)+"%")), true
	default:
		return "", false
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// --- sqlite ---

type sqlite struct{}

func (sqlite) name() string { return "sqlite" }

func (sqlite) rebind(query string) string { return strings.ReplaceAll(query, "$", "?") }

func (sqlite) placeholder(n int) string { return fmt.Sprintf("?%d", n) }

func (sqlite) inIDs(b *builder, ids []string) string {
	ph := make([]string, len(ids))
	for i, id := range ids {
		ph[i] = b.arg(id)
	}
	return "id IN (" + strings.Join(ph, ", ") + ")"
}

// jsonPath renders a JSON path with quoted keys, e.g. $."metadata"."ph".
func jsonPath(path []string) (string, bool) {
	var sb strings.Builder
	sb.WriteString("$")
	for _, key := range path {
		if strings.ContainsAny(key, `"\`) {
			return "", false
		}
		sb.WriteString(`."`)
		sb.WriteString(key)
		sb.WriteString(`"`)
	}
	return sb.String(), true
}

func (sqlite) condition(b *builder, c filter.Condition) (string, bool) {
	if c.Op == filter.OpIn {
		return inList(b, c)
	}
	jp, ok := jsonPath(c.Path)
	if !ok {
		return "", false
	}
	path := b.arg(jp)
	extract := "json_extract(attributes, " + path + ")"
	typ := "json_type(attributes, " + path + ")"

	switch c.Op {
	case filter.OpEq, filter.OpGt, filter.OpGte, filter.OpLt, filter.OpLte:
		cmp := comparators[c.Op]
		switch c.Value.Kind() {
		case value.Null:
			if c.Op != filter.OpEq {
				return "", false
			}
			return extract + " IS NULL", true
		case value.String:
			s, _ := c.Value.AsString()
			return fmt.Sprintf("(%s = 'text' AND %s %s %s)", typ, extract, cmp, b.arg(s)), true
		case value.Integer:
			i, _ := c.Value.AsInt()
			return fmt.Sprintf("(%s IN ('integer', 'real') AND %s %s %s)", typ, extract, cmp, b.arg(i)), true
		case value.Number:
			f, _ := c.Value.AsFloat()
			return fmt.Sprintf("(%s IN ('integer', 'real') AND %s %s %s)", typ, extract, cmp, b.arg(f)), true
		case value.Boolean:
			if c.Op != filter.OpEq {
				return "", false
			}
			bv, _ := c.Value.AsBool()
			return fmt.Sprintf("%s = '%t'", typ, bv), true
		default:
			return "", false
		}
	case filter.OpNull:
		if want, _ := c.Value.AsBool(); want {
			return extract + " IS NULL", true
		}
		return extract + " IS NOT NULL", true
	case filter.OpContains:
		s, ok := c.Value.AsString()
		if !ok {
			return "", false
		}
		return fmt.Sprintf("(%s IN ('array', 'object') OR instr(%s, %s) > 0)", typ, extract, b.arg(s)), true
	case filter.OpRegex:
		s := c.Value.Text()
		if !isASCII(s) {
			return "", false
		}
		return fmt.Sprintf("(%s = 'text' AND instr(lower(%s), %s) > 0)", typ, extract, b.arg(strings.ToLower(s))), true
	default:
		return "", false
	}
}
