package queryir

import (
	"strings"

	"github.com/roach88/layerq/internal/layer"
)

// Eval evaluates p against one stored row. It mirrors the SQL backend:
// LIKE is a case-insensitive substring match, a missing column compares
// false, and booleans compare as 0/1.
func Eval(p Predicate, row layer.Row) bool {
	switch pred := p.(type) {
	case Const:
		return pred.Value
	case Compare:
		return evalCompare(pred, row[pred.Column])
	case In:
		actual := row[pred.Column]
		for _, want := range pred.Values {
			if c, ok := compareValues(actual, want); ok && c == 0 {
				return true
			}
		}
		return false
	case And:
		for _, child := range pred.Predicates {
			if !Eval(child, row) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range pred.Predicates {
			if Eval(child, row) {
				return true
			}
		}
		return false
	case Not:
		return !Eval(pred.Predicate, row)
	default:
		return false
	}
}

func evalCompare(c Compare, actual any) bool {
	if c.Op == OpLike {
		s, err := layer.AsString(actual)
		if err != nil || actual == nil {
			return false
		}
		sub, _ := c.Value.(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}

	cmp, ok := compareValues(actual, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpGt:
		return cmp > 0
	case OpLt:
		return cmp < 0
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}

// compareValues orders a against b. ok is false when the two are not
// comparable (nil, or text against a number).
func compareValues(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	if as, aText := textValue(a); aText {
		bs, bText := textValue(b)
		if !bText {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}

	af, aNum := numericValue(a)
	bf, bNum := numericValue(b)
	if !aNum || !bNum {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func textValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	default:
		return "", false
	}
}

func numericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}
