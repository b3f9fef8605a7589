package query

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/roach88/layerq/internal/constraint"
	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
	"github.com/roach88/layerq/internal/repeat"
	"github.com/roach88/layerq/internal/sampling"
)

// Catalog is the layer catalog collaborator. internal/store implements
// it over SQLite.
type Catalog interface {
	// Select returns rows in a deterministic order: OrderBy, then id.
	Select(ctx context.Context, q queryir.Select) ([]layer.Row, error)

	// Count returns the number of rows matching where (nil = all).
	Count(ctx context.Context, where queryir.Predicate) (int, error)

	// SelectDistinct returns the distinct values of column among rows
	// matching where.
	SelectDistinct(ctx context.Context, column string, where queryir.Predicate) ([]any, error)
}

// HistorySource supplies recorded match history, oldest first.
type HistorySource interface {
	RecentHistory(ctx context.Context, limit int) ([]repeat.Item, error)
}

// Defaults.
const (
	DefaultLowCardinalityMax = 20000
	DefaultSearchLimit       = 15
	DefaultPageSize          = 100
)

// DefaultColumnOrder is the generator's column walk when none is configured.
var DefaultColumnOrder = []string{
	layer.ColMap,
	layer.ColGamemode,
	layer.ColVersion,
	layer.ColFaction1,
	layer.ColUnit1,
	layer.ColFaction2,
	layer.ColUnit2,
}

// DefaultGroupByColumns are the columns DistinctComponents reports.
var DefaultGroupByColumns = []string{
	layer.ColMap,
	layer.ColGamemode,
	layer.ColSize,
	layer.ColFaction1,
	layer.ColUnit1,
	layer.ColFaction2,
	layer.ColUnit2,
	layer.ColAlliance1,
	layer.ColAlliance2,
}

// Engine executes layer queries and generation against a Catalog.
//
// Thread-safety: all methods are safe for concurrent use. The only
// state shared between calls is the random source, which locks.
type Engine struct {
	catalog   Catalog
	lookup    constraint.Lookup
	history   HistorySource
	alliances layer.Alliances

	columnOrder       []string
	weights           sampling.Weights
	lowCardinalityMax int
	groupBy           []string
	searchLimit       int

	rng    sampling.Source
	tokens TokenGenerator
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLookup sets the filter-entity snapshot used by apply-filter nodes.
func WithLookup(lookup constraint.Lookup) Option {
	return func(e *Engine) { e.lookup = lookup }
}

// WithHistorySource enables Context.ApplyMatchHistory.
func WithHistorySource(h HistorySource) Option {
	return func(e *Engine) { e.history = h }
}

// WithAlliances sets the faction → alliance table used by repeat rules.
func WithAlliances(a layer.Alliances) Option {
	return func(e *Engine) { e.alliances = a }
}

// WithColumnOrder sets the generator's column walk.
func WithColumnOrder(columns []string) Option {
	return func(e *Engine) { e.columnOrder = append([]string(nil), columns...) }
}

// WithWeights sets explicit per-column value weights for generation.
func WithWeights(w sampling.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithLowCardinalityMax sets the largest candidate count generated in
// memory. Above it the generator walks columns with distinct reads.
func WithLowCardinalityMax(n int) Option {
	return func(e *Engine) { e.lowCardinalityMax = n }
}

// WithGroupByColumns sets the columns DistinctComponents reports.
func WithGroupByColumns(columns []string) Option {
	return func(e *Engine) { e.groupBy = append([]string(nil), columns...) }
}

// WithSearchLimit caps SearchIDs results.
func WithSearchLimit(n int) Option {
	return func(e *Engine) { e.searchLimit = n }
}

// WithRand sets the random generator. Tests pass a seeded one.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = sampling.NewLockedSource(rng) }
}

// WithTokenGenerator sets the request token generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine reading from catalog.
func New(catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:           catalog,
		alliances:         layer.DefaultAlliances,
		columnOrder:       DefaultColumnOrder,
		weights:           sampling.Weights{},
		lowCardinalityMax: DefaultLowCardinalityMax,
		groupBy:           DefaultGroupByColumns,
		searchLimit:       DefaultSearchLimit,
		tokens:            UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.rng == nil {
		e.rng = sampling.NewLockedSource(nil)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// requestLogger returns a logger tagged with a fresh request token.
func (e *Engine) requestLogger(op string) *slog.Logger {
	return e.logger.With("op", op, "request", e.tokens.Generate())
}
