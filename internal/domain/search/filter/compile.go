package filter

import (
	"strings"

	"github.com/kailas-cloud/dareg/internal/domain/search/catalog"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// Compile validates expr against cat and builds a predicate. It is pure: the
// same inputs always yield an equivalent predicate.
func Compile(expr value.Value, cat catalog.Catalog) (Predicate, error) {
	root, err := compileTree(expr, cat, 1)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{root: root}, nil
}

func compileTree(expr value.Value, cat catalog.Catalog, depth int) (Node, error) {
	if depth > MaxDepth {
		return nil, syntaxf("filters nested deeper than %d levels", MaxDepth)
	}
	doc, ok := expr.AsMap()
	if !ok {
		return nil, syntaxf("filters must be an object, got %s", expr.TypeName())
	}

	for _, key := range []string{keyAnd, keyOr, keyNot} {
		if !doc.Has(key) {
			continue
		}
		if doc.Len() != 1 {
			return nil, syntaxf("logical operator '%s' must be the only key in its object", key)
		}
		arg, _ := doc.Get(key)
		return compileLogical(key, arg, cat, depth)
	}

	conds := make([]Node, 0, doc.Len())
	for _, field := range doc.Keys() {
		if strings.HasPrefix(field, "$") {
			return nil, syntaxf("invalid logical operator '%s' at this level", field)
		}
		block, _ := doc.Get(field)
		nodes, err := compileField(field, block, cat)
		if err != nil {
			return nil, err
		}
		conds = append(conds, nodes...)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return And{Children: conds}, nil
}

func compileLogical(key string, arg value.Value, cat catalog.Catalog, depth int) (Node, error) {
	if key == keyNot {
		child, err := compileTree(arg, cat, depth+1)
		if err != nil {
			return nil, err
		}
		return Not{Child: child}, nil
	}

	items, ok := arg.AsList()
	if !ok {
		return nil, syntaxf("%s requires a list of filter objects, got %s", key, arg.TypeName())
	}
	children := make([]Node, 0, len(items))
	for _, item := range items {
		child, err := compileTree(item, cat, depth+1)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if key == keyAnd {
		return And{Children: children}, nil
	}
	return Or{Children: children}, nil
}

func compileField(field string, block value.Value, cat catalog.Catalog) ([]Node, error) {
	f, ok := cat.Lookup(field)
	if !ok {
		return nil, &UnknownFieldError{Field: field}
	}
	path := splitPath(field)

	ops, isBlock := block.AsMap()
	if !isBlock {
		// A bare literal is shorthand for $eq.
		ops = value.NewMap()
		ops.Set(string(OpEq), block)
	}

	out := make([]Node, 0, ops.Len())
	for _, name := range ops.Keys() {
		arg, _ := ops.Get(name)
		op := Op(name)
		if err := checkOperand(f, op, arg); err != nil {
			return nil, err
		}
		out = append(out, Condition{Field: field, Path: path, Op: op, Value: arg})
	}
	return out, nil
}

func checkOperand(f catalog.Field, op Op, arg value.Value) error {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpRegex:
		return checkType(f, arg)
	case OpContains:
		if f.Type == "array" {
			return nil
		}
		return checkType(f, arg)
	case OpIn, OpNin:
		items, ok := arg.AsList()
		if !ok {
			return syntaxf("%s operator requires a list", op)
		}
		for _, item := range items {
			if err := checkType(f, item); err != nil {
				return err
			}
		}
		return nil
	case OpNull:
		if _, ok := arg.AsBool(); !ok {
			return syntaxf("%s operator requires a boolean", op)
		}
		return nil
	default:
		return &UnsupportedOperatorError{Op: string(op)}
	}
}

func checkType(f catalog.Field, v value.Value) error {
	if f.Type == "" || satisfies(f.Type, v) {
		return nil
	}
	return &TypeMismatchError{Field: f.Path, Expected: f.Type, Actual: v.TypeName()}
}

func satisfies(declared string, v value.Value) bool {
	switch declared {
	case "string":
		return v.Kind() == value.String
	case "integer":
		return v.Kind() == value.Integer
	case "number":
		return v.IsNumeric()
	case "boolean":
		return v.Kind() == value.Boolean
	case "array":
		return v.Kind() == value.Array
	case "object":
		return v.Kind() == value.Object
	default:
		return true
	}
}
