package query

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/layerq/internal/constraint"
	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
	"github.com/roach88/layerq/internal/repeat"
)

// Context is what a query or generation run is evaluated against.
type Context struct {
	Constraints []constraint.Constraint `json:"constraints,omitempty"`

	// PreviousLayerItems is the history, oldest first.
	PreviousLayerItems []repeat.Item `json:"previous_layer_items,omitempty"`

	// FirstLayerItemParity is the parity (0 or 1) of PreviousLayerItems[0].
	FirstLayerItemParity int `json:"first_layer_item_parity,omitempty"`

	// ApplyMatchHistory prepends recorded match history from the
	// engine's HistorySource.
	ApplyMatchHistory bool `json:"apply_match_history,omitempty"`
}

// computedPrefix names the per-row flag column of a field constraint.
const computedPrefix = "constraint_"

func computedName(i int) string {
	return fmt.Sprintf("%s%d", computedPrefix, i)
}

// plan is a Context compiled for one call.
type plan struct {
	constraints []constraint.Constraint

	// where ANDs every where-condition constraint.
	where queryir.Predicate

	// computed holds one flag per field constraint; flagIndex maps its
	// name back to the constraint's position.
	computed  []queryir.Computed
	flagIndex map[string]int

	window repeat.Window
}

// compileFilters checks every constraint and compiles the filter ones.
// It performs no I/O; every structural error surfaces here.
func (e *Engine) compileFilters(qc Context) ([]queryir.Predicate, error) {
	if qc.FirstLayerItemParity != 0 && qc.FirstLayerItemParity != 1 {
		return nil, inputError(ErrCodeInvalidContext, "first layer item parity must be 0 or 1, got %d", qc.FirstLayerItemParity)
	}

	seen := make(map[string]bool, len(qc.Constraints))
	preds := make([]queryir.Predicate, len(qc.Constraints))
	for i, c := range qc.Constraints {
		if c.ID != "" {
			if seen[c.ID] {
				return nil, inputError(ErrCodeInvalidContext, "duplicate constraint id %q", c.ID)
			}
			seen[c.ID] = true
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if c.Kind == constraint.KindDoNotRepeat {
			continue
		}
		pred, err := constraint.CompileFilter(c, e.lookup)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", c.ID, err)
		}
		preds[i] = pred
	}
	return preds, nil
}

// prepare compiles a Context into a plan. Filter constraints compile
// before any catalog read; history is then merged, trimmed to the widest
// repeat window and resolved against the catalog.
func (e *Engine) prepare(ctx context.Context, qc Context) (*plan, error) {
	preds, err := e.compileFilters(qc)
	if err != nil {
		return nil, err
	}

	var rules []repeat.Rule
	for _, c := range qc.Constraints {
		if c.Kind == constraint.KindDoNotRepeat {
			rules = append(rules, c.Rule)
		}
	}

	window, err := e.window(ctx, qc, repeat.MaxWithin(rules))
	if err != nil {
		return nil, err
	}

	p := &plan{
		constraints: qc.Constraints,
		flagIndex:   make(map[string]int),
		window:      window,
	}
	var whereParts []queryir.Predicate
	for i, c := range qc.Constraints {
		pred := preds[i]
		if c.Kind == constraint.KindDoNotRepeat {
			pred = window.Predicate(c.Rule)
		}
		switch c.ApplyAs {
		case constraint.ApplyAsField:
			name := computedName(i)
			p.computed = append(p.computed, queryir.Computed{Name: name, Predicate: pred})
			p.flagIndex[name] = i
		default:
			whereParts = append(whereParts, pred)
		}
	}
	p.where = queryir.AllOf(whereParts...)
	return p, nil
}

// window builds the repeat window: recorded history (when requested)
// followed by the caller's items, trimmed to the last within slots.
// Dropping or prepending k slots shifts the first parity by k.
func (e *Engine) window(ctx context.Context, qc Context, within int) (repeat.Window, error) {
	items := qc.PreviousLayerItems
	parity := qc.FirstLayerItemParity

	if qc.ApplyMatchHistory && e.history != nil && within > 0 {
		recorded, err := e.history.RecentHistory(ctx, within)
		if err != nil {
			return repeat.Window{}, fmt.Errorf("read match history: %w", err)
		}
		recorded = withoutItems(recorded, items)
		items = append(slices.Clip(recorded), items...)
		parity = ((parity-len(recorded))%2 + 2) % 2
	}

	if drop := len(items) - within; drop > 0 {
		items = items[drop:]
		parity = (parity + drop) % 2
	}

	w := repeat.Window{Items: items, FirstParity: parity, Alliances: e.alliances}
	if len(items) == 0 {
		return w, nil
	}

	resolved, err := e.resolveLayers(ctx, repeat.LayerIDs(items))
	if err != nil {
		return repeat.Window{}, err
	}
	fallback := repeat.ParseResolver(e.alliances)
	w.Resolve = func(id string) (layer.Layer, bool) {
		if l, ok := resolved[id]; ok {
			return l, true
		}
		return fallback(id)
	}
	return w, nil
}

// withoutItems drops recorded items the caller already supplied.
func withoutItems(recorded, supplied []repeat.Item) []repeat.Item {
	ids := make(map[string]bool, len(supplied))
	for _, item := range supplied {
		if item.ItemID != "" {
			ids[item.ItemID] = true
		}
	}
	out := make([]repeat.Item, 0, len(recorded))
	for _, item := range recorded {
		if item.ItemID != "" && ids[item.ItemID] {
			continue
		}
		out = append(out, item)
	}
	return out
}

// resolveLayers reads catalog records for ids. Ids absent from the
// catalog are simply missing from the result.
func (e *Engine) resolveLayers(ctx context.Context, ids []string) (map[string]layer.Layer, error) {
	out := make(map[string]layer.Layer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := e.catalog.Select(ctx, queryir.Select{
		Where: queryir.In{Column: layer.ColID, Values: queryir.StringValues(ids)},
	})
	if err != nil {
		return nil, fmt.Errorf("resolve history layers: %w", err)
	}
	for _, row := range rows {
		l, err := layer.FromRow(row)
		if err != nil {
			return nil, fmt.Errorf("resolve history layers: %w", err)
		}
		e.alliances.Fill(&l)
		out[l.ID] = l
	}
	return out, nil
}
