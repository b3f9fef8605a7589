package query

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
	"github.com/roach88/layerq/internal/sampling"
)

// GenerateResult holds generated layers in draw order. Layers is set
// for full generation, IDs otherwise.
type GenerateResult struct {
	Code       ResultCode    `json:"code"`
	Layers     []LayerResult `json:"layers,omitempty"`
	IDs        []string      `json:"ids,omitempty"`
	TotalCount int           `json:"total_count"`
}

// Generate draws up to n distinct layers matching the context.
//
// Each draw walks the configured column order, choosing one value per
// column by weight among the values still available under the chosen
// prefix, then takes the first remaining layer by id. The result holds
// min(n, TotalCount) layers; fewer only if the context is cancelled.
func (e *Engine) Generate(ctx context.Context, qc Context, n int, full bool) (_ *GenerateResult, err error) {
	log := e.requestLogger("generate")
	start := time.Now()
	defer func() { observe("generate", start, err) }()
	return e.generate(ctx, log, qc, n, full)
}

func (e *Engine) generate(ctx context.Context, log *slog.Logger, qc Context, n int, full bool) (*GenerateResult, error) {
	if n < 0 {
		return nil, inputError(ErrCodeInvalidCount, "cannot generate %d layers", n)
	}
	for _, col := range e.columnOrder {
		if !layer.IsStored(col) {
			return nil, fmt.Errorf("generator column order: unknown column %q", col)
		}
	}

	p, err := e.prepare(ctx, qc)
	if err != nil {
		return nil, err
	}

	total, err := e.catalog.Count(ctx, p.where)
	if err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}
	result := &GenerateResult{Code: CodeOK, TotalCount: total}
	if total == 0 || n == 0 {
		log.Debug("nothing to generate", "total", total, "n", n)
		return result, nil
	}
	n = min(n, total)

	var (
		picked   []layer.Row
		strategy string
	)
	if total <= e.lowCardinalityMax {
		strategy = strategyMemory
		picked, err = e.generateInMemory(ctx, p, n)
	} else {
		strategy = strategyDistinct
		picked, err = e.generateByDistinct(ctx, p, n)
	}
	if err != nil {
		return nil, err
	}

	generatedLayers.WithLabelValues(strategy).Add(float64(len(picked)))
	if len(picked) < n {
		generateShortfall.Inc()
	}
	log.Debug("generated layers",
		"strategy", strategy,
		"requested", n,
		"generated", len(picked),
		"total", total)

	if !full {
		result.IDs = make([]string, len(picked))
		for i, row := range picked {
			id, err := layer.AsString(row[layer.ColID])
			if err != nil {
				return nil, fmt.Errorf("generated row: %w", err)
			}
			result.IDs[i] = id
		}
		return result, nil
	}

	if strategy == strategyDistinct {
		if picked, err = e.rehydrate(ctx, p, picked); err != nil {
			return nil, err
		}
	}
	if result.Layers, err = p.hydrate(picked, e.alliances); err != nil {
		return nil, err
	}
	return result, nil
}

// generateInMemory reads every candidate once and draws from memory.
func (e *Engine) generateInMemory(ctx context.Context, p *plan, n int) ([]layer.Row, error) {
	rows, err := e.catalog.Select(ctx, p.hydrateSelect(p.where))
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}

	used := make([]bool, len(rows))
	picked := make([]layer.Row, 0, n)
	for len(picked) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pool := make([]int, 0, len(rows)-len(picked))
		for i := range rows {
			if !used[i] {
				pool = append(pool, i)
			}
		}
		if len(pool) == 0 {
			break
		}

		for _, col := range e.columnOrder {
			if len(pool) == 1 {
				// Decided; further draws would only shift the rng.
				break
			}
			values := distinctValues(rows, pool, col)
			v, ok := sampling.Pick(e.rng, e.weights, col, values)
			if !ok {
				break
			}
			pool = narrow(rows, pool, col, v)
		}

		// Rows arrive in id order, so pool[0] is the lowest remaining id.
		used[pool[0]] = true
		picked = append(picked, rows[pool[0]])
	}
	return picked, nil
}

// distinctValues returns the values of col among pool in first-seen order.
func distinctValues(rows []layer.Row, pool []int, col string) []any {
	seen := make(map[string]bool)
	var values []any
	for _, i := range pool {
		v := rows[i][col]
		key := sampling.Key(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, v)
	}
	return values
}

func narrow(rows []layer.Row, pool []int, col string, value any) []int {
	key := sampling.Key(value)
	out := pool[:0:0]
	for _, i := range pool {
		if sampling.Key(rows[i][col]) == key {
			out = append(out, i)
		}
	}
	return out
}

// generateByDistinct draws without materializing the candidate set: one
// distinct read per column per draw, then a single-row read for the id.
func (e *Engine) generateByDistinct(ctx context.Context, p *plan, n int) ([]layer.Row, error) {
	var (
		picked []layer.Row
		ids    []any
	)
	for len(picked) < n {
		base := []queryir.Predicate{p.where}
		if len(ids) > 0 {
			base = append(base, queryir.Not{Predicate: queryir.In{Column: layer.ColID, Values: ids}})
		}

		prefix := base
		for _, col := range e.columnOrder {
			runtime.Gosched()
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			values, err := e.catalog.SelectDistinct(ctx, col, queryir.AllOf(prefix...))
			if err != nil {
				return nil, fmt.Errorf("distinct %s: %w", col, err)
			}
			values = dropNil(values)
			if len(values) == 0 {
				break
			}
			v, ok := sampling.Pick(e.rng, e.weights, col, values)
			if !ok {
				break
			}
			prefix = append(prefix[:len(prefix):len(prefix)], queryir.Eq(col, v))
		}

		rows, err := e.catalog.Select(ctx, queryir.Select{
			Columns: []string{layer.ColID},
			Where:   queryir.AllOf(prefix...),
			Limit:   1,
		})
		if err != nil {
			return nil, fmt.Errorf("read generated layer: %w", err)
		}
		if len(rows) == 0 {
			// The catalog changed under the walk.
			break
		}
		picked = append(picked, rows[0])
		ids = append(ids, rows[0][layer.ColID])
	}
	return picked, nil
}

// rehydrate reads the full rows for generated ids, keeping draw order.
func (e *Engine) rehydrate(ctx context.Context, p *plan, picked []layer.Row) ([]layer.Row, error) {
	ids := make([]any, len(picked))
	for i, row := range picked {
		ids[i] = row[layer.ColID]
	}
	rows, err := e.catalog.Select(ctx, p.hydrateSelect(queryir.In{Column: layer.ColID, Values: ids}))
	if err != nil {
		return nil, fmt.Errorf("read generated layers: %w", err)
	}

	byID := make(map[string]layer.Row, len(rows))
	for _, row := range rows {
		byID[sampling.Key(row[layer.ColID])] = row
	}
	out := make([]layer.Row, 0, len(picked))
	for _, id := range ids {
		if row, ok := byID[sampling.Key(id)]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func dropNil(values []any) []any {
	out := values[:0:0]
	for _, v := range values {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}
