package filter

import "github.com/kailas-cloud/dareg/internal/domain/value"

// Match evaluates the predicate against one record's attributes.
func (p Predicate) Match(attrs *value.Map) bool {
	return matchNode(p.Root(), attrs)
}

func matchNode(n Node, attrs *value.Map) bool {
	switch t := n.(type) {
	case And:
		for _, c := range t.Children {
			if !matchNode(c, attrs) {
				return false
			}
		}
		return true
	case Or:
		if len(t.Children) == 0 {
			return true
		}
		for _, c := range t.Children {
			if matchNode(c, attrs) {
				return true
			}
		}
		return false
	case Not:
		return !matchNode(t.Child, attrs)
	case Condition:
		return t.match(attrs)
	default:
		return false
	}
}

func (c Condition) match(attrs *value.Map) bool {
	got, present := value.Lookup(attrs, c.Path)
	isNull := !present || got.IsNull()

	switch c.Op {
	case OpEq:
		return equalOrNull(got, isNull, c.Value)
	case OpNe:
		return !equalOrNull(got, isNull, c.Value)
	case OpGt, OpGte, OpLt, OpLte:
		if isNull {
			return false
		}
		cmp, ok := value.Compare(got, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case OpContains:
		return !isNull && value.Contains(got, c.Value)
	case OpRegex:
		return !isNull && value.ContainsFold(got, c.Value.Text())
	case OpIn:
		return !isNull && inList(got, c.Value)
	case OpNin:
		return isNull || !inList(got, c.Value)
	case OpNull:
		want, _ := c.Value.AsBool()
		return isNull == want
	default:
		return false
	}
}

func equalOrNull(got value.Value, isNull bool, want value.Value) bool {
	if want.IsNull() {
		return isNull
	}
	return !isNull && value.Equal(got, want)
}

func inList(got, list value.Value) bool {
	items, _ := list.AsList()
	for _, item := range items {
		if value.Equal(got, item) {
			return true
		}
	}
	return false
}
