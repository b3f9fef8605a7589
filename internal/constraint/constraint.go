package constraint

import (
	"fmt"

	"github.com/roach88/layerq/internal/queryir"
	"github.com/roach88/layerq/internal/repeat"
)

// Kind is the constraint variant.
type Kind string

const (
	KindFilterAnon   Kind = "filter-anon"
	KindFilterEntity Kind = "filter-entity"
	KindDoNotRepeat  Kind = "do-not-repeat"
)

// ApplyAs decides what a compiled constraint does to a query.
type ApplyAs string

const (
	// ApplyAsField computes the constraint per row and exposes it
	// without filtering.
	ApplyAsField ApplyAs = "field"
	// ApplyAsWhere filters rows by the constraint.
	ApplyAsWhere ApplyAs = "where-condition"
)

// Constraint is one unit of filtering or diagnostic logic in a query.
// Exactly one of Filter (filter-anon), FilterID (filter-entity) or
// Rule (do-not-repeat) is meaningful, selected by Kind.
type Constraint struct {
	ID      string
	Name    string
	Kind    Kind
	ApplyAs ApplyAs

	Filter   Node
	FilterID string
	Rule     repeat.Rule
}

// CompileFilter compiles a filter-anon or filter-entity constraint.
// Do-not-repeat constraints need history and are compiled by their
// caller through repeat.Window.
func CompileFilter(c Constraint, lookup Lookup) (queryir.Predicate, error) {
	switch c.Kind {
	case KindFilterAnon:
		return Compile(c.Filter, lookup, nil)
	case KindFilterEntity:
		return Compile(ApplyFilter{FilterID: c.FilterID}, lookup, nil)
	default:
		return nil, fmt.Errorf("constraint %q: kind %q is not a filter", c.ID, c.Kind)
	}
}

// Validate checks the constraint's shape without compiling it.
func (c Constraint) Validate() error {
	switch c.ApplyAs {
	case ApplyAsField, ApplyAsWhere:
	default:
		return &CompileError{Code: ErrCodeInvalidOperand, Message: fmt.Sprintf("constraint %q: unknown applyAs %q", c.ID, c.ApplyAs)}
	}
	switch c.Kind {
	case KindFilterAnon:
		if c.Filter == nil {
			return &CompileError{Code: ErrCodeInvalidOperand, Message: fmt.Sprintf("constraint %q: filter-anon without filter", c.ID)}
		}
	case KindFilterEntity:
		if c.FilterID == "" {
			return &CompileError{Code: ErrCodeInvalidOperand, Message: fmt.Sprintf("constraint %q: filter-entity without filter id", c.ID)}
		}
	case KindDoNotRepeat:
		if err := c.Rule.Validate(); err != nil {
			return &CompileError{Code: ErrCodeInvalidOperand, Message: fmt.Sprintf("constraint %q: %v", c.ID, err)}
		}
	default:
		return &CompileError{Code: ErrCodeInvalidOperand, Message: fmt.Sprintf("constraint %q: unknown kind %q", c.ID, c.Kind)}
	}
	return nil
}

// Spec is the wire form of a Constraint.
type Spec struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name,omitempty" yaml:"name,omitempty"`
	Type     Kind         `json:"type" yaml:"type"`
	ApplyAs  ApplyAs      `json:"apply_as,omitempty" yaml:"apply_as,omitempty"`
	Filter   *NodeSpec    `json:"filter,omitempty" yaml:"filter,omitempty"`
	FilterID string       `json:"filter_id,omitempty" yaml:"filter_id,omitempty"`
	Rule     *repeat.Rule `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// Constraint decodes the wire form. ApplyAs defaults to where-condition.
func (s Spec) Constraint() (Constraint, error) {
	c := Constraint{
		ID:       s.ID,
		Name:     s.Name,
		Kind:     s.Type,
		ApplyAs:  s.ApplyAs,
		FilterID: s.FilterID,
	}
	if c.ApplyAs == "" {
		c.ApplyAs = ApplyAsWhere
	}
	if s.Filter != nil {
		node, err := s.Filter.Node()
		if err != nil {
			return Constraint{}, fmt.Errorf("constraint %q: %w", s.ID, err)
		}
		c.Filter = node
	}
	if s.Rule != nil {
		c.Rule = *s.Rule
	}
	if err := c.Validate(); err != nil {
		return Constraint{}, err
	}
	return c, nil
}
