package queryir

import (
	"fmt"
)

// Predicate is a boolean condition over one catalog row.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Const is a literal truth value.
type Const struct {
	Value bool
}

func (Const) predicateNode() {}

var (
	// True matches every row.
	True Predicate = Const{Value: true}
	// False matches no row.
	False Predicate = Const{Value: false}
)

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq   CompareOp = "="
	OpGt   CompareOp = ">"
	OpLt   CompareOp = "<"
	OpGte  CompareOp = ">="
	OpLte  CompareOp = "<="
	OpLike CompareOp = "LIKE" // substring match
)

// Compare represents <column> <op> <value>.
//
// For OpLike, Value is the substring to find; backends add the
// wildcards and escape the operand.
type Compare struct {
	Column string
	Op     CompareOp
	Value  any
}

func (Compare) predicateNode() {}

// In represents <column> IN (<values>). An empty Values matches nothing.
type In struct {
	Column string
	Values []any
}

func (In) predicateNode() {}

// And is a conjunction (empty = true).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction (empty = false).
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a whole subtree.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Eq is shorthand for Compare{column, OpEq, value}.
func Eq(column string, value any) Compare {
	return Compare{Column: column, Op: OpEq, Value: value}
}

// AllOf builds an And, dropping nil entries.
func AllOf(preds ...Predicate) And {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return And{Predicates: out}
}

// AnyOf builds an Or, dropping nil entries.
func AnyOf(preds ...Predicate) Or {
	out := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	return Or{Predicates: out}
}

// Negate wraps p in Not, or returns p unchanged when neg is false.
func Negate(p Predicate, neg bool) Predicate {
	if !neg {
		return p
	}
	return Not{Predicate: p}
}

// StringValues converts a []string into the []any In expects.
func StringValues(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// NormalizeValue converts a literal to one of string, float64, int64 or
// bool. Numeric literals decoded from YAML or JSON arrive as int or
// float64; both are accepted.
func NormalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case uint64:
		return int64(val), nil
	case float32:
		return float64(val), nil
	case float64:
		return val, nil
	case nil:
		return nil, fmt.Errorf("null literal is not allowed")
	default:
		return nil, fmt.Errorf("unsupported literal type %T", v)
	}
}
