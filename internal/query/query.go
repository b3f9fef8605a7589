package query

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
)

// SortType selects how QueryLayers orders rows.
type SortType string

const (
	SortColumn SortType = "column"
	SortRandom SortType = "random"
)

// Sort orders a query. The zero value sorts by id ascending.
type Sort struct {
	Type      SortType          `json:"type"`
	Column    string            `json:"column,omitempty"`
	Direction queryir.Direction `json:"direction,omitempty"`
}

// QueryInput is a paged QueryLayers request. PageIndex is zero-based.
type QueryInput struct {
	Context   Context `json:"context"`
	PageIndex int     `json:"page_index"`
	PageSize  int     `json:"page_size"`
	Sort      *Sort   `json:"sort,omitempty"`
}

// QueryResult is one page of layers.
type QueryResult struct {
	Code       ResultCode    `json:"code"`
	Layers     []LayerResult `json:"layers"`
	TotalCount int           `json:"total_count"`
	PageCount  int           `json:"page_count"`
}

// QueryLayers returns one page of layers matching the context.
//
// A random sort is delegated to Generate with the page size as the
// draw count and reports a single page. Otherwise the page read and the
// total count run concurrently; both use the same predicate.
func (e *Engine) QueryLayers(ctx context.Context, in QueryInput) (_ *QueryResult, err error) {
	log := e.requestLogger("query")
	start := time.Now()
	defer func() { observe("query", start, err) }()

	pageSize := in.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 0 || in.PageIndex < 0 {
		return nil, inputError(ErrCodeInvalidPage, "page index %d, page size %d", in.PageIndex, in.PageSize)
	}

	if in.Sort != nil && in.Sort.Type == SortRandom {
		log.Debug("random sort, delegating to generator", "page_size", pageSize)
		gen, err := e.generate(ctx, log, in.Context, pageSize, true)
		if err != nil {
			return nil, err
		}
		return &QueryResult{
			Code:       CodeOK,
			Layers:     gen.Layers,
			TotalCount: gen.TotalCount,
			PageCount:  1,
		}, nil
	}

	orderBy, err := orderKeys(in.Sort)
	if err != nil {
		return nil, err
	}

	p, err := e.prepare(ctx, in.Context)
	if err != nil {
		return nil, err
	}

	var (
		rows  []layer.Row
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := p.hydrateSelect(p.where)
		q.OrderBy = orderBy
		q.Limit = pageSize
		q.Offset = in.PageIndex * pageSize
		var err error
		rows, err = e.catalog.Select(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = e.catalog.Count(gctx, p.where)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Warn("catalog read failed", "error", err)
		return nil, err
	}

	layers, err := p.hydrate(rows, e.alliances)
	if err != nil {
		return nil, err
	}

	log.Debug("query complete",
		"constraints", len(in.Context.Constraints),
		"page", in.PageIndex,
		"rows", len(layers),
		"total", total)

	return &QueryResult{
		Code:       CodeOK,
		Layers:     layers,
		TotalCount: total,
		PageCount:  (total + pageSize - 1) / pageSize,
	}, nil
}

func orderKeys(s *Sort) ([]queryir.OrderKey, error) {
	if s == nil || s.Column == "" && (s.Type == "" || s.Type == SortColumn) {
		return nil, nil
	}
	if s.Type != "" && s.Type != SortColumn {
		return nil, inputError(ErrCodeInvalidSort, "unknown sort type %q", s.Type)
	}
	if !layer.IsStored(s.Column) {
		return nil, inputError(ErrCodeInvalidSort, "cannot sort by %q", s.Column)
	}
	switch s.Direction {
	case "", queryir.Asc, queryir.Desc:
	default:
		return nil, inputError(ErrCodeInvalidSort, "unknown sort direction %q", s.Direction)
	}
	return []queryir.OrderKey{{Column: s.Column, Direction: s.Direction}}, nil
}
