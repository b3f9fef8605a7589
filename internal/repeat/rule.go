package repeat

import (
	"fmt"
	"slices"

	"github.com/roach88/layerq/internal/layer"
)

// Field is the attribute a Rule keeps from repeating.
type Field string

const (
	FieldMap      Field = "Map"
	FieldGamemode Field = "Gamemode"
	FieldLayer    Field = "Layer"
	FieldSize     Field = "Size"
	FieldFaction  Field = "Faction"
	FieldAlliance Field = "Alliance"
)

// Fields lists every supported Field.
var Fields = []Field{FieldMap, FieldGamemode, FieldLayer, FieldSize, FieldFaction, FieldAlliance}

// Rule forbids a Field value seen in the last Within history slots.
// Within <= 0 is inert. When TargetValues is set only those values are
// tracked.
type Rule struct {
	Field        Field    `json:"field" yaml:"field"`
	Within       int      `json:"within" yaml:"within"`
	TargetValues []string `json:"target_values,omitempty" yaml:"target_values,omitempty"`
}

// Validate checks the rule's field.
func (r Rule) Validate() error {
	if !slices.Contains(Fields, r.Field) {
		return fmt.Errorf("unknown repeat field %q", r.Field)
	}
	return nil
}

// teamBased reports whether the field is read per team.
func (f Field) teamBased() bool {
	return f == FieldFaction || f == FieldAlliance
}

// column returns the catalog column for a non-team field.
func (f Field) column() string {
	switch f {
	case FieldMap:
		return layer.ColMap
	case FieldGamemode:
		return layer.ColGamemode
	case FieldLayer:
		return layer.ColLayer
	case FieldSize:
		return layer.ColSize
	default:
		return ""
	}
}

// MaxWithin returns the largest Within among rules (0 when none).
func MaxWithin(rules []Rule) int {
	widest := 0
	for _, r := range rules {
		widest = max(widest, r.Within)
	}
	return widest
}
