package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
)

func row(t *testing.T, id string) layer.Row {
	t.Helper()
	l, err := layer.Parse(id)
	require.NoError(t, err)
	layer.DefaultAlliances.Fill(&l)
	return l.ToRow()
}

func comp(column string, code Code, value any) Comp {
	return Comp{Comparison: Comparison{Column: column, Code: code, Value: value}}
}

func hasAll(column string, values ...any) Comp {
	return Comp{Comparison: Comparison{Column: column, Code: CodeHasAll, Values: values}}
}

func TestCompile_EmptyBlocks(t *testing.T) {
	andPred, err := Compile(And(), nil, nil)
	require.NoError(t, err)
	orPred, err := Compile(Or(), nil, nil)
	require.NoError(t, err)

	r := row(t, "Narva-RAAS-V1:RGF:USA")
	assert.True(t, queryir.Eval(andPred, r), "and([]) is vacuously true")
	assert.False(t, queryir.Eval(orPred, r), "or([]) is vacuously false")
}

func TestCompile_NegationWrapsComposedBlock(t *testing.T) {
	node := Block{
		Kind: BlockOr,
		Neg:  true,
		Children: []Node{
			comp(layer.ColMap, CodeEq, "Narva"),
			comp(layer.ColMap, CodeEq, "Gorodok"),
		},
	}

	pred, err := Compile(node, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, queryir.Not{Predicate: queryir.Or{Predicates: []queryir.Predicate{
		queryir.Eq(layer.ColMap, "Narva"),
		queryir.Eq(layer.ColMap, "Gorodok"),
	}}}, pred)

	assert.False(t, queryir.Eval(pred, row(t, "Narva-RAAS-V1:RGF:USA")))
	assert.True(t, queryir.Eval(pred, row(t, "Kohat-RAAS-V1:RGF:USA")))
}

func TestCompile_DirectComparisons(t *testing.T) {
	cases := []struct {
		name string
		node Node
		want queryir.Predicate
	}{
		{"eq", comp(layer.ColGamemode, CodeEq, "RAAS"), queryir.Eq(layer.ColGamemode, "RAAS")},
		{"eq float from int", comp(layer.ColBalanceDifferential, CodeEq, 2), queryir.Eq(layer.ColBalanceDifferential, 2.0)},
		{"like", comp(layer.ColLayer, CodeLike, "RAAS"), queryir.Compare{Column: layer.ColLayer, Op: queryir.OpLike, Value: "RAAS"}},
		{"gt", comp(layer.ColAsymmetryScore, CodeGt, 0.5), queryir.Compare{Column: layer.ColAsymmetryScore, Op: queryir.OpGt, Value: 0.5}},
		{"lt", comp(layer.ColAsymmetryScore, CodeLt, 1.5), queryir.Compare{Column: layer.ColAsymmetryScore, Op: queryir.OpLt, Value: 1.5}},
		{"is-true", Comp{Comparison: Comparison{Column: layer.ColScored, Code: CodeIsTrue}}, queryir.Eq(layer.ColScored, true)},
		{
			"in",
			Comp{Comparison: Comparison{Column: layer.ColMap, Code: CodeIn, Values: []any{"Narva", "Gorodok"}}},
			queryir.In{Column: layer.ColMap, Values: []any{"Narva", "Gorodok"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pred, err := Compile(tc.node, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, pred)
		})
	}
}

func TestCompile_InRangeOrderIndependent(t *testing.T) {
	forward, err := Compile(Comp{Comparison: Comparison{Column: layer.ColBalanceDifferential, Code: CodeInRange, Range: []float64{2, 10}}}, nil, nil)
	require.NoError(t, err)
	backward, err := Compile(Comp{Comparison: Comparison{Column: layer.ColBalanceDifferential, Code: CodeInRange, Range: []float64{10, 2}}}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, forward, backward)

	for _, tc := range []struct {
		value float64
		want  bool
	}{{1.9, false}, {2, true}, {6, true}, {10, true}, {10.1, false}} {
		r := layer.Row{layer.ColBalanceDifferential: tc.value}
		assert.Equal(t, tc.want, queryir.Eval(forward, r), "value %v", tc.value)
	}
}

func TestCompile_HasAllEitherOrder(t *testing.T) {
	pred, err := Compile(hasAll(layer.ColFactionMatchup, "USA", "RGF"), nil, nil)
	require.NoError(t, err)

	assert.True(t, queryir.Eval(pred, row(t, "Narva-RAAS-V1:RGF:USA")), "B vs A matches")
	assert.True(t, queryir.Eval(pred, row(t, "Narva-RAAS-V1:USA:RGF")), "A vs B matches")
	assert.False(t, queryir.Eval(pred, row(t, "Narva-RAAS-V1:USA:PLA")), "A vs C rejected")
	assert.False(t, queryir.Eval(pred, row(t, "Narva-RAAS-V1:USA:USA")))
}

func TestCompile_HasAllRepeatedValue(t *testing.T) {
	both, err := Compile(hasAll(layer.ColFactionMatchup, "USA", "USA"), nil, nil)
	require.NoError(t, err)
	assert.True(t, queryir.Eval(both, row(t, "Narva-RAAS-V1:USA:USA")))
	assert.False(t, queryir.Eval(both, row(t, "Narva-RAAS-V1:USA:RGF")), "repeated value needs both slots")

	single, err := Compile(hasAll(layer.ColFactionMatchup, "USA"), nil, nil)
	require.NoError(t, err)
	assert.True(t, queryir.Eval(single, row(t, "Narva-RAAS-V1:RGF:USA")))
	assert.False(t, queryir.Eval(single, row(t, "Narva-RAAS-V1:RGF:PLA")))
}

func TestCompile_HasAllFullAndUnitMatchups(t *testing.T) {
	full, err := Compile(hasAll(layer.ColFullMatchup, "USA-AA", "RGF-CA"), nil, nil)
	require.NoError(t, err)
	assert.True(t, queryir.Eval(full, row(t, "Narva-RAAS-V1:RGF-CA:USA-AA")))
	assert.False(t, queryir.Eval(full, row(t, "Narva-RAAS-V1:RGF-CA:USA-MT")))

	noUnit, err := Compile(hasAll(layer.ColFullMatchup, "INS"), nil, nil)
	require.NoError(t, err)
	assert.True(t, queryir.Eval(noUnit, row(t, "Gorodok-AAS-V1:INS:BAF-MT")))
	assert.False(t, queryir.Eval(noUnit, row(t, "Gorodok-AAS-V1:INS-X:BAF-MT")))

	units, err := Compile(hasAll(layer.ColUnitMatchup, "CA", "AA"), nil, nil)
	require.NoError(t, err)
	assert.True(t, queryir.Eval(units, row(t, "Narva-RAAS-V1:USA-AA:RGF-CA")))
}

func TestCompile_HasAllInvalidOperands(t *testing.T) {
	cases := map[string]Node{
		"empty":       hasAll(layer.ColFactionMatchup),
		"three":       hasAll(layer.ColFactionMatchup, "USA", "RGF", "PLA"),
		"non-string":  hasAll(layer.ColFactionMatchup, 3),
		"empty value": hasAll(layer.ColFactionMatchup, ""),
		"not paired":  hasAll(layer.ColMap, "Narva"),
	}
	for name, node := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(node, nil, nil)
			require.Error(t, err)
			assert.True(t, IsInvalidOperand(err), "got %v", err)
		})
	}
}

func TestCompile_IllegalOperatorForColumn(t *testing.T) {
	cases := map[string]Node{
		"gt on text":         comp(layer.ColMap, CodeGt, 3),
		"like on bool":       comp(layer.ColScored, CodeLike, "x"),
		"is-true on text":    Comp{Comparison: Comparison{Column: layer.ColMap, Code: CodeIsTrue}},
		"eq on paired":       comp(layer.ColFactionMatchup, CodeEq, "USA"),
		"unknown column":     comp("Weather", CodeEq, "Rain"),
		"unknown code":       comp(layer.ColMap, "regex", "N.*"),
		"text operand float": comp(layer.ColBalanceDifferential, CodeEq, "high"),
		"null operand":       comp(layer.ColMap, CodeEq, nil),
		"like non-string":    comp(layer.ColMap, CodeLike, 3),
		"inrange arity":      Comp{Comparison: Comparison{Column: layer.ColAsymmetryScore, Code: CodeInRange, Range: []float64{1, 2, 3}}},
		"in with bad value":  Comp{Comparison: Comparison{Column: layer.ColMap, Code: CodeIn, Values: []any{"Narva", 2}}},
	}
	for name, node := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(node, nil, nil)
			require.Error(t, err)
			assert.True(t, IsInvalidOperand(err), "got %v", err)
		})
	}
}

func TestCompile_AllowMatchups(t *testing.T) {
	blufor := []TeamMask{{Alliance: "BLUFOR"}}
	rgf := []TeamMask{{Faction: "RGF"}, {Faction: "VDV"}}
	matchups := func(mode MatchupMode, allow ...[]TeamMask) Node {
		return Comp{Comparison: Comparison{Code: CodeAllowMatchups, Matchups: &MatchupSpec{Mode: mode, Allow: allow}}}
	}

	cases := []struct {
		name string
		node Node
		id   string
		want bool
	}{
		{"both ok", matchups(MatchupBoth, blufor), "Narva-RAAS-V1:USA:BAF", true},
		{"both one side", matchups(MatchupBoth, blufor), "Narva-RAAS-V1:USA:RGF", false},
		{"either ok", matchups(MatchupEither, blufor), "Narva-RAAS-V1:RGF:USA", true},
		{"either none", matchups(MatchupEither, blufor), "Narva-RAAS-V1:RGF:INS", false},
		{"split forward", matchups(MatchupSplit, blufor, rgf), "Narva-RAAS-V1:USA:RGF", true},
		{"split reversed", matchups(MatchupSplit, blufor, rgf), "Narva-RAAS-V1:VDV:BAF", true},
		{"split miss", matchups(MatchupSplit, blufor, rgf), "Narva-RAAS-V1:USA:BAF", false},
		{"unit mask", matchups(MatchupEither, []TeamMask{{Faction: "USA", Unit: "AA"}}), "Narva-RAAS-V1:RGF:USA-AA", true},
		{"unit mask miss", matchups(MatchupEither, []TeamMask{{Faction: "USA", Unit: "AA"}}), "Narva-RAAS-V1:RGF:USA-MT", false},
		{"empty lists", matchups(MatchupSplit), "Narva-RAAS-V1:RGF:INS", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pred, err := Compile(tc.node, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, queryir.Eval(pred, row(t, tc.id)))
		})
	}

	empty, err := Compile(matchups(MatchupBoth, nil, nil), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, queryir.True, empty)

	_, err = Compile(matchups("sideways", blufor), nil, nil)
	assert.True(t, IsInvalidOperand(err))
	_, err = Compile(matchups(MatchupSplit, blufor, rgf, blufor), nil, nil)
	assert.True(t, IsInvalidOperand(err))
	_, err = Compile(Comp{Comparison: Comparison{Code: CodeAllowMatchups}}, nil, nil)
	assert.True(t, IsInvalidOperand(err))
}

func TestCompile_ApplyFilter(t *testing.T) {
	table := Table{
		"raas": {ID: "raas", Filter: comp(layer.ColGamemode, CodeEq, "RAAS")},
		"narva-raas": {ID: "narva-raas", Filter: And(
			comp(layer.ColMap, CodeEq, "Narva"),
			ApplyFilter{FilterID: "raas"},
		)},
	}

	pred, err := Compile(ApplyFilter{FilterID: "narva-raas"}, table, nil)
	require.NoError(t, err)
	assert.True(t, queryir.Eval(pred, row(t, "Narva-RAAS-V1:RGF:USA")))
	assert.False(t, queryir.Eval(pred, row(t, "Narva-AAS-V1:RGF:USA")))

	negated, err := Compile(ApplyFilter{FilterID: "raas", Neg: true}, table, nil)
	require.NoError(t, err)
	assert.Equal(t, queryir.Not{Predicate: queryir.Eq(layer.ColGamemode, "RAAS")}, negated)
}

func TestCompile_RecursiveFilter(t *testing.T) {
	table := Table{
		"self": {ID: "self", Filter: Or(comp(layer.ColMap, CodeEq, "Narva"), ApplyFilter{FilterID: "self"})},
		"a":    {ID: "a", Filter: And(ApplyFilter{FilterID: "b"})},
		"b":    {ID: "b", Filter: And(ApplyFilter{FilterID: "c"})},
		"c":    {ID: "c", Filter: Or(ApplyFilter{FilterID: "a", Neg: true})},
	}

	_, err := Compile(ApplyFilter{FilterID: "self"}, table, nil)
	require.Error(t, err)
	assert.True(t, IsRecursiveFilter(err))

	_, err = Compile(ApplyFilter{FilterID: "a"}, table, nil)
	require.Error(t, err)
	assert.True(t, IsRecursiveFilter(err))

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "a", ce.FilterID)
	assert.Equal(t, []string{"a", "b", "c", "a"}, ce.Chain)
}

func TestCompile_SameEntityTwiceIsNotACycle(t *testing.T) {
	table := Table{
		"raas": {ID: "raas", Filter: comp(layer.ColGamemode, CodeEq, "RAAS")},
	}
	node := Or(ApplyFilter{FilterID: "raas"}, And(ApplyFilter{FilterID: "raas"}))

	_, err := Compile(node, table, nil)
	assert.NoError(t, err)
}

func TestCompile_UnknownFilter(t *testing.T) {
	table := Table{
		"parent": {ID: "parent", Filter: And(ApplyFilter{FilterID: "deleted"})},
	}

	_, err := Compile(ApplyFilter{FilterID: "parent"}, table, nil)
	require.Error(t, err)
	assert.True(t, IsUnknownFilter(err))
	assert.Contains(t, err.Error(), "deleted")

	_, err = Compile(ApplyFilter{FilterID: "parent"}, nil, nil)
	assert.True(t, IsUnknownFilter(err), "nil lookup resolves nothing")
}

func TestCompile_DoesNotMutateChain(t *testing.T) {
	table := Table{
		"a": {ID: "a", Filter: Or(ApplyFilter{FilterID: "b"}, ApplyFilter{FilterID: "c"})},
		"b": {ID: "b", Filter: comp(layer.ColMap, CodeEq, "Narva")},
		"c": {ID: "c", Filter: comp(layer.ColMap, CodeEq, "Gorodok")},
	}
	chain := make([]string, 1, 8)
	chain[0] = "outer"

	_, err := Compile(ApplyFilter{FilterID: "a"}, table, chain)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer"}, chain)
	assert.Equal(t, "outer", chain[:cap(chain)][0])
	assert.Empty(t, chain[:cap(chain)][1], "spare capacity untouched")
}

func TestCompile_NilNode(t *testing.T) {
	_, err := Compile(nil, nil, nil)
	assert.True(t, IsInvalidOperand(err))
	_, err = Compile(Block{Kind: "xor"}, nil, nil)
	assert.True(t, IsInvalidOperand(err))
}

func TestCompileFilter(t *testing.T) {
	table := Table{"raas": {ID: "raas", Filter: comp(layer.ColGamemode, CodeEq, "RAAS")}}

	pred, err := CompileFilter(Constraint{ID: "1", Kind: KindFilterEntity, FilterID: "raas"}, table)
	require.NoError(t, err)
	assert.Equal(t, queryir.Eq(layer.ColGamemode, "RAAS"), pred)

	pred, err = CompileFilter(Constraint{ID: "2", Kind: KindFilterAnon, Filter: comp(layer.ColMap, CodeEq, "Narva")}, table)
	require.NoError(t, err)
	assert.Equal(t, queryir.Eq(layer.ColMap, "Narva"), pred)

	_, err = CompileFilter(Constraint{ID: "3", Kind: KindDoNotRepeat}, table)
	assert.Error(t, err)
}
