package repeat

import (
	"github.com/roach88/layerq/internal/layer"
)

// Item is one slot of the externally owned history or queue. An item
// with Choices is a vote; LayerID is then unset.
type Item struct {
	ItemID  string `json:"item_id,omitempty" yaml:"item_id,omitempty"`
	LayerID string `json:"layer_id,omitempty" yaml:"layer_id,omitempty"`
	Choices []Item `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// IsVote reports whether the item is a vote parent.
func (i Item) IsVote() bool {
	return len(i.Choices) > 0
}

// Coalesce flattens items into one entry per concrete layer: simple
// items as-is, vote items replaced by their choices.
func Coalesce(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.IsVote() {
			out = append(out, Coalesce(item.Choices)...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// LayerIDs returns the distinct layer ids referenced by items, votes
// included, in first-seen order.
func LayerIDs(items []Item) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, item := range Coalesce(items) {
		if item.LayerID == "" || seen[item.LayerID] {
			continue
		}
		seen[item.LayerID] = true
		ids = append(ids, item.LayerID)
	}
	return ids
}

// Violation explains why a candidate is blocked: which constraint, which
// field and which prior item.
type Violation struct {
	ConstraintID string `json:"constraint_id"`
	Field        Field  `json:"field"`
	ReasonItem   Item   `json:"reason_item"`
}

// Resolver returns the record for a history layer id.
type Resolver func(layerID string) (layer.Layer, bool)

// ParseResolver resolves ids by decoding them, filling alliances from
// the given table. Catalog-only attributes such as Size stay empty.
func ParseResolver(alliances layer.Alliances) Resolver {
	return func(layerID string) (layer.Layer, bool) {
		l, err := layer.Parse(layerID)
		if err != nil {
			return layer.Layer{}, false
		}
		alliances.Fill(&l)
		return l, true
	}
}
