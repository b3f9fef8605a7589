package constraint

import (
	"fmt"
)

// Node is a FilterNode: Block, Comp or ApplyFilter.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	filterNode()
	Negated() bool
}

// BlockKind selects how a Block combines its children.
type BlockKind string

const (
	BlockAnd BlockKind = "and"
	BlockOr  BlockKind = "or"
)

// Block combines children by conjunction or disjunction.
// An empty and-block is true; an empty or-block is false.
type Block struct {
	Kind     BlockKind
	Children []Node
	Neg      bool
}

func (Block) filterNode()      {}
func (b Block) Negated() bool { return b.Neg }

// Comp is a comparison leaf.
type Comp struct {
	Comparison Comparison
	Neg        bool
}

func (Comp) filterNode()      {}
func (c Comp) Negated() bool { return c.Neg }

// ApplyFilter references a FilterEntity by id.
type ApplyFilter struct {
	FilterID string
	Neg      bool
}

func (ApplyFilter) filterNode()      {}
func (a ApplyFilter) Negated() bool { return a.Neg }

// And is shorthand for a non-negated and-block.
func And(children ...Node) Block {
	return Block{Kind: BlockAnd, Children: children}
}

// Or is shorthand for a non-negated or-block.
func Or(children ...Node) Block {
	return Block{Kind: BlockOr, Children: children}
}

// Code is a comparison operator.
type Code string

const (
	CodeEq            Code = "eq"
	CodeIn            Code = "in"
	CodeLike          Code = "like"
	CodeGt            Code = "gt"
	CodeLt            Code = "lt"
	CodeInRange       Code = "inrange"
	CodeIsTrue        Code = "is-true"
	CodeHasAll        Code = "has-all"
	CodeAllowMatchups Code = "allow-matchups"
)

// Comparison is a (column, operator, operand) triple. Which operand
// field is read depends on Code:
//
//	eq, like, gt, lt  Value
//	in, has-all       Values
//	inrange           Range (2 bounds, any order)
//	is-true           none
//	allow-matchups    Matchups (Column unused)
type Comparison struct {
	Column   string       `json:"column,omitempty" yaml:"column,omitempty"`
	Code     Code         `json:"code" yaml:"code"`
	Value    any          `json:"value,omitempty" yaml:"value,omitempty"`
	Values   []any        `json:"values,omitempty" yaml:"values,omitempty"`
	Range    []float64    `json:"range,omitempty" yaml:"range,omitempty"`
	Matchups *MatchupSpec `json:"matchups,omitempty" yaml:"matchups,omitempty"`
}

// MatchupMode decides how allow-lists apply to the two teams.
type MatchupMode string

const (
	// MatchupBoth requires both teams to satisfy allow-list 0.
	MatchupBoth MatchupMode = "both"
	// MatchupEither requires either team to satisfy allow-list 0.
	MatchupEither MatchupMode = "either"
	// MatchupSplit requires one team to satisfy allow-list 0 and the
	// other allow-list 1, in either assignment.
	MatchupSplit MatchupMode = "split"
)

// TeamMask matches a team on whichever of its fields are set.
type TeamMask struct {
	Alliance string `json:"alliance,omitempty" yaml:"alliance,omitempty"`
	Faction  string `json:"faction,omitempty" yaml:"faction,omitempty"`
	Unit     string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// MatchupSpec is the operand of allow-matchups. Allow holds at most two
// allow-lists; a team satisfies a list when it matches any mask in it.
type MatchupSpec struct {
	Mode  MatchupMode  `json:"mode" yaml:"mode"`
	Allow [][]TeamMask `json:"allow" yaml:"allow"`
}

// NodeSpec is the wire form of a Node, as stored in filter files and
// constraint payloads. Type is one of "and", "or", "comp", "apply-filter".
type NodeSpec struct {
	Type     string      `json:"type" yaml:"type"`
	Neg      bool        `json:"neg,omitempty" yaml:"neg,omitempty"`
	Children []NodeSpec  `json:"children,omitempty" yaml:"children,omitempty"`
	Comp     *Comparison `json:"comp,omitempty" yaml:"comp,omitempty"`
	FilterID string      `json:"filter_id,omitempty" yaml:"filter_id,omitempty"`
}

// Node converts the wire form into the sum type.
func (s NodeSpec) Node() (Node, error) {
	switch s.Type {
	case string(BlockAnd), string(BlockOr):
		children := make([]Node, 0, len(s.Children))
		for i, child := range s.Children {
			n, err := child.Node()
			if err != nil {
				return nil, fmt.Errorf("child %d: %w", i, err)
			}
			children = append(children, n)
		}
		return Block{Kind: BlockKind(s.Type), Children: children, Neg: s.Neg}, nil
	case "comp":
		if s.Comp == nil {
			return nil, fmt.Errorf("comp node without comparison")
		}
		return Comp{Comparison: *s.Comp, Neg: s.Neg}, nil
	case "apply-filter":
		if s.FilterID == "" {
			return nil, fmt.Errorf("apply-filter node without filter_id")
		}
		return ApplyFilter{FilterID: s.FilterID, Neg: s.Neg}, nil
	default:
		return nil, fmt.Errorf("unknown filter node type %q", s.Type)
	}
}

// SpecOf converts a Node back to its wire form.
func SpecOf(n Node) NodeSpec {
	switch node := n.(type) {
	case Block:
		children := make([]NodeSpec, len(node.Children))
		for i, child := range node.Children {
			children[i] = SpecOf(child)
		}
		return NodeSpec{Type: string(node.Kind), Neg: node.Neg, Children: children}
	case Comp:
		comp := node.Comparison
		return NodeSpec{Type: "comp", Neg: node.Neg, Comp: &comp}
	case ApplyFilter:
		return NodeSpec{Type: "apply-filter", Neg: node.Neg, FilterID: node.FilterID}
	default:
		return NodeSpec{}
	}
}
