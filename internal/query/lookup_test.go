package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/layerq/internal/constraint"
	"github.com/roach88/layerq/internal/layer"
)

func TestLayersExist(t *testing.T) {
	e := newEngine(newCatalog(t, fourLayers...))

	res, err := e.LayersExist(context.Background(), []string{
		"Narva-RAAS-V1:RGF:USA",
		"Skorpo-RAAS-V1:RGF:USA",
		"Gorodok-AAS-V1:RGF:USA",
	})
	require.NoError(t, err)

	assert.Equal(t, CodeOK, res.Code)
	assert.Equal(t, []Existence{
		{ID: "Narva-RAAS-V1:RGF:USA", Exists: true},
		{ID: "Skorpo-RAAS-V1:RGF:USA", Exists: false},
		{ID: "Gorodok-AAS-V1:RGF:USA", Exists: true},
	}, res.Results)
}

func TestLayersExist_NoIDsSkipsCatalog(t *testing.T) {
	spy := &spyCatalog{Catalog: newCatalog(t)}
	e := newEngine(spy)

	res, err := e.LayersExist(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Zero(t, spy.calls.Load())
}

func TestLayersInPool(t *testing.T) {
	e := newEngine(newCatalog(t, fourLayers...))

	res, err := e.LayersInPool(context.Background(), []string{
		"Narva-AAS-V1:RGF:USA",
		"Narva-RAAS-V1:RGF:USA",
		"Skorpo-AAS-V1:RGF:USA",
	}, Context{Constraints: []constraint.Constraint{
		where("aas", eq(layer.ColGamemode, "AAS")),
		field("narva", eq(layer.ColMap, "Gorodok")),
	}})
	require.NoError(t, err)

	assert.Equal(t, []PoolMembership{
		{ID: "Narva-AAS-V1:RGF:USA", MatchesFilter: true, Exists: true},
		{ID: "Narva-RAAS-V1:RGF:USA", MatchesFilter: false, Exists: true},
		{ID: "Skorpo-AAS-V1:RGF:USA", MatchesFilter: false, Exists: false},
	}, res.Results)
}

func TestLayersInPool_CompileError(t *testing.T) {
	e := newEngine(newCatalog(t, fourLayers...))

	_, err := e.LayersInPool(context.Background(), []string{"Narva-AAS-V1:RGF:USA"}, Context{
		Constraints: []constraint.Constraint{{ID: "gone", Kind: constraint.KindFilterEntity, ApplyAs: constraint.ApplyAsWhere, FilterID: "gone"}},
	})
	assert.True(t, constraint.IsUnknownFilter(err))
}

func TestDistinctComponents(t *testing.T) {
	e := newEngine(newCatalog(t, append(fourLayers, "Skorpo-RAAS-V1:INS:BAF")...),
		WithGroupByColumns([]string{layer.ColMap, layer.ColGamemode, layer.ColAlliance1}))

	got, err := e.DistinctComponents(context.Background(), Context{
		Constraints: []constraint.Constraint{where("raas", eq(layer.ColGamemode, "RAAS"))},
	})
	require.NoError(t, err)

	assert.Equal(t, Components{
		layer.ColMap:       {"Gorodok", "Narva", "Skorpo"},
		layer.ColGamemode:  {"RAAS"},
		layer.ColAlliance1: {"PAC", "REDFOR"},
	}, got)
}

func TestDistinctComponents_UnknownColumn(t *testing.T) {
	e := newEngine(newCatalog(t), WithGroupByColumns([]string{layer.ColUnitMatchup}))

	_, err := e.DistinctComponents(context.Background(), Context{})
	require.Error(t, err)
}

func TestSearchIDs(t *testing.T) {
	e := newEngine(newCatalog(t, fourLayers...))

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"case folded", "NARVA", []string{"Narva-AAS-V1:RGF:USA", "Narva-RAAS-V1:RGF:USA"}},
		{"substring", "raas", []string{"Gorodok-RAAS-V1:RGF:USA", "Narva-RAAS-V1:RGF:USA"}},
		{"wildcards are literal", "_", []string{}},
		{"blank lists everything", "  ", []string{
			"Gorodok-AAS-V1:RGF:USA",
			"Gorodok-RAAS-V1:RGF:USA",
			"Narva-AAS-V1:RGF:USA",
			"Narva-RAAS-V1:RGF:USA",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.SearchIDs(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchIDs_Limit(t *testing.T) {
	e := newEngine(newCatalog(t, fourLayers...), WithSearchLimit(1))

	got, err := e.SearchIDs(context.Background(), "aas")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gorodok-AAS-V1:RGF:USA"}, got)
}
