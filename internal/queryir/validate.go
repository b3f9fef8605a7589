package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/layerq/internal/layer"
)

// ValidationError lists every problem found in a predicate tree.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid predicate: " + strings.Join(e.Problems, "; ")
}

// Validate checks that every column a predicate references is a stored
// catalog column and that every literal has a supported type.
//
// Backends interpolate column names into their query text, so nothing
// reaches a backend without passing Validate first.
//
// Validate is a pure function with no side effects.
func Validate(p Predicate) error {
	v := &validator{}
	v.validate(p)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Const:
	case Compare:
		v.validateColumn(pred.Column)
		switch pred.Op {
		case OpEq, OpGt, OpLt, OpGte, OpLte:
		case OpLike:
			if _, ok := pred.Value.(string); !ok {
				v.addProblem("LIKE on %s needs a string operand, got %T", pred.Column, pred.Value)
			}
		default:
			v.addProblem("unknown operator %q on %s", pred.Op, pred.Column)
		}
		v.validateValue(pred.Column, pred.Value)
	case In:
		v.validateColumn(pred.Column)
		for _, val := range pred.Values {
			v.validateValue(pred.Column, val)
		}
	case And:
		for _, child := range pred.Predicates {
			v.validate(child)
		}
	case Or:
		for _, child := range pred.Predicates {
			v.validate(child)
		}
	case Not:
		v.validate(pred.Predicate)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateColumn(name string) {
	if !layer.IsStored(name) {
		v.addProblem("unknown column %q", name)
	}
}

func (v *validator) validateValue(column string, val any) {
	if _, err := NormalizeValue(val); err != nil {
		v.addProblem("%s: %v", column, err)
	}
}
