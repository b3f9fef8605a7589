package querysql

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
)

// render formats a compiled statement for golden comparison.
func render(t *testing.T, sql string, params []any) []byte {
	t.Helper()
	p, err := json.Marshal(params)
	require.NoError(t, err)
	return []byte(fmt.Sprintf("%s\n%s\n", sql, p))
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCompileSelect_Golden(t *testing.T) {
	compiler := NewSQLCompiler("")

	testCases := []struct {
		name  string
		query queryir.Select
	}{
		{
			name:  "select_all_columns",
			query: queryir.Select{},
		},
		{
			name: "page_with_computed",
			query: queryir.Select{
				Columns:  []string{layer.ColID, layer.ColMap},
				Where:    queryir.Eq(layer.ColGamemode, "RAAS"),
				Computed: []queryir.Computed{{Name: "constraint_0", Predicate: queryir.Eq(layer.ColMap, "Narva")}},
				OrderBy:  []queryir.OrderKey{{Column: layer.ColAsymmetryScore, Direction: queryir.Desc}},
				Limit:    10,
				Offset:   20,
			},
		},
		{
			name: "nested_predicate",
			query: queryir.Select{
				Columns: []string{layer.ColID},
				Where: queryir.Not{Predicate: queryir.Or{Predicates: []queryir.Predicate{
					queryir.And{Predicates: []queryir.Predicate{
						queryir.Eq(layer.ColMap, "Narva"),
						queryir.In{Column: layer.ColFaction1, Values: []any{"USA", "BAF"}},
					}},
					queryir.Compare{Column: layer.ColBalanceDifferential, Op: queryir.OpGte, Value: 2.5},
				}}},
			},
		},
		{
			name: "like_escaped",
			query: queryir.Select{
				Columns: []string{layer.ColID},
				Where:   queryir.Compare{Column: layer.ColLayer, Op: queryir.OpLike, Value: "50%_off"},
			},
		},
		{
			name: "offset_only",
			query: queryir.Select{
				Columns: []string{layer.ColID},
				Offset:  5,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := compiler.CompileSelect(tc.query)
			require.NoError(t, err)
			newGoldie(t).Assert(t, tc.name, render(t, sql, params))
		})
	}
}

func TestCompileCount_Golden(t *testing.T) {
	sql, params, err := NewSQLCompiler("").CompileCount(queryir.Or{})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "count_empty_or", render(t, sql, params))
}

func TestCompileDistinct_Golden(t *testing.T) {
	where := queryir.And{Predicates: []queryir.Predicate{
		queryir.Eq(layer.ColScored, true),
		queryir.Not{Predicate: queryir.In{Column: layer.ColMap}},
	}}
	sql, params, err := NewSQLCompiler("").CompileDistinct(layer.ColMap, where)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "distinct_map", render(t, sql, params))
}

func TestCompileSelect_OrderByMandatory(t *testing.T) {
	compiler := NewSQLCompiler("")

	testCases := []struct {
		name  string
		query queryir.Select
	}{
		{"no filter", queryir.Select{}},
		{"with filter", queryir.Select{Where: queryir.Eq(layer.ColMap, "Narva")}},
		{"column sort", queryir.Select{OrderBy: []queryir.OrderKey{{Column: layer.ColMap}}}},
		{"limit", queryir.Select{Limit: 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, _, err := compiler.CompileSelect(tc.query)
			require.NoError(t, err)
			assert.Contains(t, sql, `"id" COLLATE BINARY ASC`, "every select ends in the id tiebreak: %s", sql)
		})
	}
}

func TestCompileSelect_ExplicitIDKey(t *testing.T) {
	sql, _, err := NewSQLCompiler("").CompileSelect(queryir.Select{
		Columns: []string{layer.ColID},
		OrderBy: []queryir.OrderKey{
			{Column: layer.ColID, Direction: queryir.Desc},
			{Column: layer.ColMap},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "layers" ORDER BY "id" COLLATE BINARY DESC`, sql)
}

func TestCompileSelect_NumericSortHasNoCollation(t *testing.T) {
	sql, _, err := NewSQLCompiler("").CompileSelect(queryir.Select{
		Columns: []string{layer.ColID},
		OrderBy: []queryir.OrderKey{{Column: layer.ColBalanceDifferential}},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "layers" ORDER BY "Balance_Differential" ASC, "id" COLLATE BINARY ASC`, sql)
}

func TestCompile_NoStringInterpolation(t *testing.T) {
	dangerous := "'; DROP TABLE layers; --"

	sql, params, err := NewSQLCompiler("").CompileSelect(queryir.Select{
		Columns: []string{layer.ColID},
		Where: queryir.AnyOf(
			queryir.Eq(layer.ColMap, dangerous),
			queryir.Compare{Column: layer.ColLayer, Op: queryir.OpLike, Value: dangerous},
		),
	})
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{dangerous, "%" + dangerous + "%"}, params)
}

func TestCompilePredicate_Shapes(t *testing.T) {
	compiler := NewSQLCompiler("")

	testCases := []struct {
		name       string
		pred       queryir.Predicate
		wantSQL    string
		wantParams []any
	}{
		{"true", queryir.True, "1 = 1", nil},
		{"false", queryir.False, "0 = 1", nil},
		{"empty and", queryir.And{}, "1 = 1", nil},
		{"empty or", queryir.Or{}, "0 = 1", nil},
		{"empty in", queryir.In{Column: layer.ColMap}, "0 = 1", nil},
		{"single child", queryir.AllOf(queryir.Eq(layer.ColMap, "Narva")), `"Map" = ?`, []any{"Narva"}},
		{"bool as int", queryir.Eq(layer.ColZPool, false), `"Z_Pool" = ?`, []any{int64(0)}},
		{"int widened", queryir.Compare{Column: layer.ColAsymmetryScore, Op: queryir.OpLt, Value: 3}, `"Asymmetry_Score" < ?`, []any{int64(3)}},
		{"not", queryir.Not{Predicate: queryir.Eq(layer.ColMap, "Narva")}, `NOT ("Map" = ?)`, []any{"Narva"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := compiler.CompilePredicate(tc.pred)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, tc.wantParams, params)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	compiler := NewSQLCompiler("")

	_, _, err := compiler.CompilePredicate(queryir.Eq("Weather", "Rain"))
	assert.Error(t, err, "unknown predicate column")

	_, _, err = compiler.CompilePredicate(queryir.Eq(layer.ColFactionMatchup, "USA"))
	assert.Error(t, err, "paired columns never reach SQL")

	_, _, err = compiler.CompilePredicate(nil)
	assert.Error(t, err)

	_, _, err = compiler.CompileSelect(queryir.Select{Columns: []string{"Map; DROP"}})
	assert.Error(t, err)

	_, _, err = compiler.CompileSelect(queryir.Select{Computed: []queryir.Computed{{Name: "bad name", Predicate: queryir.True}}})
	assert.Error(t, err)

	_, _, err = compiler.CompileSelect(queryir.Select{OrderBy: []queryir.OrderKey{{Column: layer.ColMap, Direction: "SIDEWAYS"}}})
	assert.Error(t, err)

	_, _, err = compiler.CompileSelect(queryir.Select{OrderBy: []queryir.OrderKey{{Column: layer.ColFullMatchup}}})
	assert.Error(t, err)

	_, _, err = compiler.CompileDistinct(layer.ColUnitMatchup, nil)
	assert.Error(t, err)

	_, _, err = compiler.CompileCount(queryir.In{Column: layer.ColMap, Values: []any{nil}})
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"Map"`, quoteIdent("Map"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}
