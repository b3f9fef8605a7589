package constraint

import (
	"fmt"
	"slices"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
)

// Compile turns a filter tree into a predicate.
//
// chain holds the entity ids currently being expanded, outermost first;
// top-level callers pass nil. Compile never mutates chain.
func Compile(n Node, lookup Lookup, chain []string) (queryir.Predicate, error) {
	switch node := n.(type) {
	case Block:
		return compileBlock(node, lookup, chain)
	case Comp:
		pred, err := compileComparison(node.Comparison)
		if err != nil {
			return nil, err
		}
		return queryir.Negate(pred, node.Neg), nil
	case ApplyFilter:
		return compileApply(node, lookup, chain)
	case nil:
		return nil, &CompileError{Code: ErrCodeInvalidOperand, Message: "nil filter node"}
	default:
		return nil, &CompileError{Code: ErrCodeInvalidOperand, Message: fmt.Sprintf("unknown filter node %T", n)}
	}
}

func compileBlock(b Block, lookup Lookup, chain []string) (queryir.Predicate, error) {
	children := make([]queryir.Predicate, 0, len(b.Children))
	for _, child := range b.Children {
		pred, err := Compile(child, lookup, chain)
		if err != nil {
			return nil, err
		}
		children = append(children, pred)
	}

	var combined queryir.Predicate
	switch b.Kind {
	case BlockAnd:
		combined = queryir.And{Predicates: children}
	case BlockOr:
		combined = queryir.Or{Predicates: children}
	default:
		return nil, &CompileError{Code: ErrCodeInvalidOperand, Message: fmt.Sprintf("unknown block kind %q", b.Kind)}
	}

	// Negation wraps the composed block, never the individual children.
	return queryir.Negate(combined, b.Neg), nil
}

func compileApply(a ApplyFilter, lookup Lookup, chain []string) (queryir.Predicate, error) {
	if slices.Contains(chain, a.FilterID) {
		return nil, NewRecursiveFilterError(a.FilterID, chain)
	}
	var entity FilterEntity
	var ok bool
	if lookup != nil {
		entity, ok = lookup.Lookup(a.FilterID)
	}
	if !ok {
		return nil, NewUnknownFilterError(a.FilterID, chain)
	}

	next := append(slices.Clip(chain), a.FilterID)
	pred, err := Compile(entity.Filter, lookup, next)
	if err != nil {
		return nil, err
	}
	return queryir.Negate(pred, a.Neg), nil
}

// operator × column type legality.
var legalTypes = map[Code][]layer.ColumnType{
	CodeEq:      {layer.TypeString, layer.TypeInteger, layer.TypeFloat, layer.TypeBoolean},
	CodeIn:      {layer.TypeString, layer.TypeInteger},
	CodeLike:    {layer.TypeString},
	CodeGt:      {layer.TypeInteger, layer.TypeFloat},
	CodeLt:      {layer.TypeInteger, layer.TypeFloat},
	CodeInRange: {layer.TypeInteger, layer.TypeFloat},
	CodeIsTrue:  {layer.TypeBoolean},
	CodeHasAll:  {layer.TypeString},
}

func compileComparison(c Comparison) (queryir.Predicate, error) {
	if c.Code == CodeAllowMatchups {
		return compileAllowMatchups(c)
	}

	col, ok := layer.LookupColumn(c.Column)
	if !ok {
		return nil, invalidOperand(c, "unknown column")
	}
	types, ok := legalTypes[c.Code]
	if !ok {
		return nil, invalidOperand(c, "unknown comparison code")
	}
	if !slices.Contains(types, col.Type) {
		return nil, invalidOperand(c, "operator not supported on %s columns", col.Type)
	}
	// Paired composites only support has-all; has-all only paired.
	if col.Paired != (c.Code == CodeHasAll) {
		if col.Paired {
			return nil, invalidOperand(c, "paired column only supports has-all")
		}
		return nil, invalidOperand(c, "has-all requires a paired column")
	}

	switch c.Code {
	case CodeEq:
		v, err := literal(c, col, c.Value)
		if err != nil {
			return nil, err
		}
		return queryir.Eq(c.Column, v), nil

	case CodeIn:
		values := make([]any, 0, len(c.Values))
		for _, raw := range c.Values {
			v, err := literal(c, col, raw)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return queryir.In{Column: c.Column, Values: values}, nil

	case CodeLike:
		s, ok := c.Value.(string)
		if !ok {
			return nil, invalidOperand(c, "like needs a string operand, got %T", c.Value)
		}
		return queryir.Compare{Column: c.Column, Op: queryir.OpLike, Value: s}, nil

	case CodeGt, CodeLt:
		v, err := literal(c, col, c.Value)
		if err != nil {
			return nil, err
		}
		op := queryir.OpGt
		if c.Code == CodeLt {
			op = queryir.OpLt
		}
		return queryir.Compare{Column: c.Column, Op: op, Value: v}, nil

	case CodeInRange:
		if len(c.Range) != 2 {
			return nil, invalidOperand(c, "inrange needs exactly 2 bounds, got %d", len(c.Range))
		}
		lo, hi := c.Range[0], c.Range[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		return queryir.AllOf(
			queryir.Compare{Column: c.Column, Op: queryir.OpGte, Value: lo},
			queryir.Compare{Column: c.Column, Op: queryir.OpLte, Value: hi},
		), nil

	case CodeIsTrue:
		return queryir.Eq(c.Column, true), nil

	case CodeHasAll:
		return compileHasAll(c)
	}

	return nil, invalidOperand(c, "unknown comparison code")
}

// literal normalizes an operand and checks it against the column type.
func literal(c Comparison, col layer.Column, raw any) (any, error) {
	v, err := queryir.NormalizeValue(raw)
	if err != nil {
		return nil, invalidOperand(c, "%v", err)
	}
	switch col.Type {
	case layer.TypeString:
		if _, ok := v.(string); ok {
			return v, nil
		}
	case layer.TypeBoolean:
		if _, ok := v.(bool); ok {
			return v, nil
		}
	case layer.TypeInteger:
		if _, ok := v.(int64); ok {
			return v, nil
		}
	case layer.TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		}
	}
	return nil, invalidOperand(c, "operand %v (%T) does not fit a %s column", raw, raw, col.Type)
}

// slotMatch builds the predicate "team slot n of the paired column equals value".
func slotMatch(column string, slot int, value string) queryir.Predicate {
	faction, unit := layer.ColFaction1, layer.ColUnit1
	if slot == 2 {
		faction, unit = layer.ColFaction2, layer.ColUnit2
	}
	switch column {
	case layer.ColFactionMatchup:
		return queryir.Eq(faction, value)
	case layer.ColUnitMatchup:
		return queryir.Eq(unit, value)
	default: // FullMatchup
		f, u := layer.SplitTeamString(value)
		return queryir.AllOf(queryir.Eq(faction, f), queryir.Eq(unit, u))
	}
}

// compileHasAll matches a paired column regardless of team order.
//
//	[A]     either slot is A
//	[A, A]  both slots are A
//	[A, B]  (1=A and 2=B) or (1=B and 2=A)
func compileHasAll(c Comparison) (queryir.Predicate, error) {
	values := make([]string, 0, len(c.Values))
	for _, raw := range c.Values {
		s, ok := raw.(string)
		if !ok || s == "" {
			return nil, invalidOperand(c, "has-all values must be non-empty strings, got %v", raw)
		}
		values = append(values, s)
	}

	switch len(values) {
	case 0:
		return nil, invalidOperand(c, "has-all needs at least one value")
	case 1:
		v := values[0]
		return queryir.AnyOf(slotMatch(c.Column, 1, v), slotMatch(c.Column, 2, v)), nil
	case 2:
		a, b := values[0], values[1]
		if a == b {
			return queryir.AllOf(slotMatch(c.Column, 1, a), slotMatch(c.Column, 2, a)), nil
		}
		return queryir.AnyOf(
			queryir.AllOf(slotMatch(c.Column, 1, a), slotMatch(c.Column, 2, b)),
			queryir.AllOf(slotMatch(c.Column, 1, b), slotMatch(c.Column, 2, a)),
		), nil
	default:
		return nil, invalidOperand(c, "has-all takes at most 2 values, got %d", len(values))
	}
}

func compileAllowMatchups(c Comparison) (queryir.Predicate, error) {
	spec := c.Matchups
	if spec == nil {
		return nil, invalidOperand(c, "allow-matchups needs a matchups operand")
	}
	if len(spec.Allow) > 2 {
		return nil, invalidOperand(c, "allow-matchups takes at most 2 allow-lists, got %d", len(spec.Allow))
	}

	var lists [2][]TeamMask
	copy(lists[:], spec.Allow)
	if len(lists[0]) == 0 && len(lists[1]) == 0 {
		return queryir.True, nil
	}

	switch spec.Mode {
	case MatchupBoth:
		return queryir.AllOf(teamAllowed(lists[0], 1), teamAllowed(lists[0], 2)), nil
	case MatchupEither:
		return queryir.AnyOf(teamAllowed(lists[0], 1), teamAllowed(lists[0], 2)), nil
	case MatchupSplit:
		return queryir.AnyOf(
			queryir.AllOf(teamAllowed(lists[0], 1), teamAllowed(lists[1], 2)),
			queryir.AllOf(teamAllowed(lists[0], 2), teamAllowed(lists[1], 1)),
		), nil
	default:
		return nil, invalidOperand(c, "unknown matchup mode %q", spec.Mode)
	}
}

// teamAllowed matches team slot n against an allow-list. An empty list
// allows everything.
func teamAllowed(masks []TeamMask, slot int) queryir.Predicate {
	if len(masks) == 0 {
		return queryir.True
	}
	alliance, faction, unit := layer.ColAlliance1, layer.ColFaction1, layer.ColUnit1
	if slot == 2 {
		alliance, faction, unit = layer.ColAlliance2, layer.ColFaction2, layer.ColUnit2
	}

	options := make([]queryir.Predicate, 0, len(masks))
	for _, m := range masks {
		var parts []queryir.Predicate
		if m.Alliance != "" {
			parts = append(parts, queryir.Eq(alliance, m.Alliance))
		}
		if m.Faction != "" {
			parts = append(parts, queryir.Eq(faction, m.Faction))
		}
		if m.Unit != "" {
			parts = append(parts, queryir.Eq(unit, m.Unit))
		}
		options = append(options, queryir.AllOf(parts...))
	}
	return queryir.AnyOf(options...)
}
