package constraint

import (
	"fmt"
	"sort"
)

// FilterEntity is a named, persisted filter owned by another subsystem.
type FilterEntity struct {
	ID          string
	Name        string
	Description string
	Filter      Node
}

// Lookup resolves filter entity ids. Implementations are point-in-time
// snapshots; an id may disappear between two calls.
type Lookup interface {
	Lookup(id string) (FilterEntity, bool)
}

// Table is a Lookup backed by a map.
type Table map[string]FilterEntity

// Lookup implements Lookup.
func (t Table) Lookup(id string) (FilterEntity, bool) {
	e, ok := t[id]
	return e, ok
}

// IDs returns the entity ids in sorted order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EntitySpec is the wire form of a FilterEntity.
type EntitySpec struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Filter      NodeSpec `json:"filter" yaml:"filter"`
}

// NewTable decodes entity specs into a Table. Duplicate ids are an error.
func NewTable(specs []EntitySpec) (Table, error) {
	table := make(Table, len(specs))
	for _, spec := range specs {
		if spec.ID == "" {
			return nil, fmt.Errorf("filter entity without id")
		}
		if _, dup := table[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate filter entity %q", spec.ID)
		}
		node, err := spec.Filter.Node()
		if err != nil {
			return nil, fmt.Errorf("filter entity %q: %w", spec.ID, err)
		}
		table[spec.ID] = FilterEntity{
			ID:          spec.ID,
			Name:        spec.Name,
			Description: spec.Description,
			Filter:      node,
		}
	}
	return table, nil
}
