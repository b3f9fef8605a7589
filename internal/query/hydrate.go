package query

import (
	"fmt"

	"github.com/roach88/layerq/internal/constraint"
	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
	"github.com/roach88/layerq/internal/repeat"
)

// LayerResult is one hydrated catalog row.
type LayerResult struct {
	layer.Layer

	FactionMatchup [2]string `json:"faction_matchup"`
	FullMatchup    [2]string `json:"full_matchup"`
	UnitMatchup    [2]string `json:"unit_matchup"`

	// Constraints holds one flag per Context constraint, in order.
	// Where-condition constraints are true (the row passed them); field
	// constraints carry the row's computed value.
	Constraints []bool `json:"constraints"`

	// Violations explains every do-not-repeat constraint the row breaks.
	Violations []repeat.Violation `json:"violations,omitempty"`
}

// hydrateSelect is the row read used for results: every stored column
// plus the plan's computed flags.
func (p *plan) hydrateSelect(where queryir.Predicate) queryir.Select {
	return queryir.Select{Where: where, Computed: p.computed}
}

// hydrate decodes catalog rows into results.
func (p *plan) hydrate(rows []layer.Row, alliances layer.Alliances) ([]LayerResult, error) {
	out := make([]LayerResult, 0, len(rows))
	for _, row := range rows {
		r, err := p.hydrateRow(row, alliances)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (p *plan) hydrateRow(row layer.Row, alliances layer.Alliances) (LayerResult, error) {
	l, err := layer.FromRow(row)
	if err != nil {
		return LayerResult{}, fmt.Errorf("decode layer: %w", err)
	}
	alliances.Fill(&l)

	flags := make([]bool, len(p.constraints))
	for i := range flags {
		flags[i] = true
	}
	for name, i := range p.flagIndex {
		v, ok := row[name]
		if !ok {
			continue
		}
		set, err := layer.AsBool(v)
		if err != nil {
			return LayerResult{}, fmt.Errorf("layer %s: %s: %w", l.ID, name, err)
		}
		flags[i] = set
	}

	var violations []repeat.Violation
	for _, c := range p.constraints {
		if c.Kind != constraint.KindDoNotRepeat {
			continue
		}
		violations = append(violations, p.window.Violations(c.ID, c.Rule, l)...)
	}

	return LayerResult{
		Layer:          l,
		FactionMatchup: l.FactionMatchup(),
		FullMatchup:    l.FullMatchup(),
		UnitMatchup:    l.UnitMatchup(),
		Constraints:    flags,
		Violations:     violations,
	}, nil
}
