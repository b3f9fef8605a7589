package query

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/layerq/internal/constraint"
	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
	"github.com/roach88/layerq/internal/repeat"
	"github.com/roach88/layerq/internal/store"
)

// fourLayers is two maps crossed with two gamemodes.
var fourLayers = []string{
	"Narva-AAS-V1:RGF:USA",
	"Narva-RAAS-V1:RGF:USA",
	"Gorodok-AAS-V1:RGF:USA",
	"Gorodok-RAAS-V1:RGF:USA",
}

// newCatalog opens a SQLite catalog in a temp directory holding ids.
func newCatalog(t *testing.T, ids ...string) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	layers := make([]layer.Layer, len(ids))
	for i, id := range ids {
		l, err := layer.Parse(id)
		require.NoError(t, err)
		layer.DefaultAlliances.Fill(&l)
		layers[i] = l
	}
	_, err = s.LoadLayers(context.Background(), layers)
	require.NoError(t, err)
	return s
}

// newEngine builds an engine with a seeded rng and a silent logger.
func newEngine(catalog Catalog, opts ...Option) *Engine {
	base := []Option{
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithTokenGenerator(NewFixedGenerator("test-request")),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
	return New(catalog, append(base, opts...)...)
}

func where(id string, node constraint.Node) constraint.Constraint {
	return constraint.Constraint{ID: id, Kind: constraint.KindFilterAnon, ApplyAs: constraint.ApplyAsWhere, Filter: node}
}

func field(id string, node constraint.Node) constraint.Constraint {
	c := where(id, node)
	c.ApplyAs = constraint.ApplyAsField
	return c
}

func noRepeat(id string, applyAs constraint.ApplyAs, rule repeat.Rule) constraint.Constraint {
	return constraint.Constraint{ID: id, Kind: constraint.KindDoNotRepeat, ApplyAs: applyAs, Rule: rule}
}

func eq(column string, value any) constraint.Comp {
	return constraint.Comp{Comparison: constraint.Comparison{Column: column, Code: constraint.CodeEq, Value: value}}
}

func resultIDs(layers []LayerResult) []string {
	ids := make([]string, len(layers))
	for i, l := range layers {
		ids[i] = l.ID
	}
	return ids
}

// spyCatalog counts catalog calls and can fail or cancel on demand.
type spyCatalog struct {
	Catalog

	calls atomic.Int32
	err   error

	// onDistinct runs after each SelectDistinct.
	onDistinct func()
}

func (s *spyCatalog) Select(ctx context.Context, q queryir.Select) ([]layer.Row, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.Catalog.Select(ctx, q)
}

func (s *spyCatalog) Count(ctx context.Context, where queryir.Predicate) (int, error) {
	s.calls.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return s.Catalog.Count(ctx, where)
}

func (s *spyCatalog) SelectDistinct(ctx context.Context, column string, where queryir.Predicate) ([]any, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	values, err := s.Catalog.SelectDistinct(ctx, column, where)
	if s.onDistinct != nil {
		s.onDistinct()
	}
	return values, err
}

var errCatalogDown = errors.New("catalog down")
