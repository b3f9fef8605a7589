package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
	"github.com/roach88/layerq/internal/sampling"
)

// inPoolColumn is the computed flag LayersInPool reads.
const inPoolColumn = "in_pool"

// Existence is one LayersExist answer.
type Existence struct {
	ID     string `json:"id"`
	Exists bool   `json:"exists"`
}

// ExistsResult answers LayersExist in request order.
type ExistsResult struct {
	Code    ResultCode  `json:"code"`
	Results []Existence `json:"results"`
}

// PoolMembership is one LayersInPool answer.
type PoolMembership struct {
	ID            string `json:"id"`
	MatchesFilter bool   `json:"matches_filter"`
	Exists        bool   `json:"exists"`
}

// PoolResult answers LayersInPool in request order.
type PoolResult struct {
	Code    ResultCode       `json:"code"`
	Results []PoolMembership `json:"results"`
}

// Components maps a column to its distinct values in the pool.
type Components map[string][]any

// LayersExist reports which ids are present in the catalog.
func (e *Engine) LayersExist(ctx context.Context, ids []string) (_ *ExistsResult, err error) {
	log := e.requestLogger("exists")
	start := time.Now()
	defer func() { observe("exists", start, err) }()

	found, err := e.flagIDs(ctx, ids, nil)
	if err != nil {
		return nil, err
	}

	results := make([]Existence, len(ids))
	for i, id := range ids {
		_, ok := found[id]
		results[i] = Existence{ID: id, Exists: ok}
	}
	log.Debug("checked layers", "ids", len(ids), "found", len(found))
	return &ExistsResult{Code: CodeOK, Results: results}, nil
}

// LayersInPool reports, per id, whether the layer exists and whether it
// satisfies every where-condition constraint of the context.
func (e *Engine) LayersInPool(ctx context.Context, ids []string, qc Context) (_ *PoolResult, err error) {
	log := e.requestLogger("in_pool")
	start := time.Now()
	defer func() { observe("in_pool", start, err) }()

	p, err := e.prepare(ctx, qc)
	if err != nil {
		return nil, err
	}
	found, err := e.flagIDs(ctx, ids, p.where)
	if err != nil {
		return nil, err
	}

	results := make([]PoolMembership, len(ids))
	for i, id := range ids {
		matches, ok := found[id]
		results[i] = PoolMembership{ID: id, Exists: ok, MatchesFilter: ok && matches}
	}
	log.Debug("checked pool membership", "ids", len(ids), "found", len(found))
	return &PoolResult{Code: CodeOK, Results: results}, nil
}

// flagIDs reads the catalog rows for ids and evaluates flag against
// each. The result maps every id present in the catalog to its flag; a
// nil flag reads as true.
func (e *Engine) flagIDs(ctx context.Context, ids []string, flag queryir.Predicate) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	q := queryir.Select{
		Columns: []string{layer.ColID},
		Where:   queryir.In{Column: layer.ColID, Values: queryir.StringValues(ids)},
	}
	if flag != nil {
		q.Computed = []queryir.Computed{{Name: inPoolColumn, Predicate: flag}}
	}
	rows, err := e.catalog.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("read layers by id: %w", err)
	}

	for _, row := range rows {
		id, err := layer.AsString(row[layer.ColID])
		if err != nil {
			return nil, fmt.Errorf("read layers by id: %w", err)
		}
		set := true
		if flag != nil {
			if set, err = layer.AsBool(row[inPoolColumn]); err != nil {
				return nil, fmt.Errorf("layer %s: %w", id, err)
			}
		}
		out[id] = set
	}
	return out, nil
}

// DistinctComponents returns the distinct values of every group-by
// column among the layers that satisfy the context's where-condition
// constraints. Columns are read concurrently.
func (e *Engine) DistinctComponents(ctx context.Context, qc Context) (_ Components, err error) {
	log := e.requestLogger("components")
	start := time.Now()
	defer func() { observe("components", start, err) }()

	for _, col := range e.groupBy {
		if !layer.IsStored(col) {
			return nil, fmt.Errorf("group-by columns: unknown column %q", col)
		}
	}

	p, err := e.prepare(ctx, qc)
	if err != nil {
		return nil, err
	}

	values := make([][]any, len(e.groupBy))
	g, gctx := errgroup.WithContext(ctx)
	for i, col := range e.groupBy {
		g.Go(func() error {
			vals, err := e.catalog.SelectDistinct(gctx, col, p.where)
			if err != nil {
				return fmt.Errorf("distinct %s: %w", col, err)
			}
			values[i] = vals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(Components, len(e.groupBy))
	for i, col := range e.groupBy {
		out[col] = dropNil(values[i])
	}
	log.Debug("read components", "columns", len(e.groupBy))
	return out, nil
}

// SearchIDs returns up to the search limit of layer ids containing text,
// ignoring case, in id order.
func (e *Engine) SearchIDs(ctx context.Context, text string) (_ []string, err error) {
	log := e.requestLogger("search")
	start := time.Now()
	defer func() { observe("search", start, err) }()

	needle := cases.Fold().String(norm.NFC.String(strings.TrimSpace(text)))

	var where queryir.Predicate
	if needle != "" {
		where = queryir.Compare{Column: layer.ColID, Op: queryir.OpLike, Value: needle}
	}
	rows, err := e.catalog.Select(ctx, queryir.Select{
		Columns: []string{layer.ColID},
		Where:   where,
		Limit:   e.searchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("search layers: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, sampling.Key(row[layer.ColID]))
	}
	log.Debug("searched layers", "text", text, "matches", len(ids))
	return ids, nil
}
