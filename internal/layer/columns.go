package layer

import "fmt"

// ColumnType is the value type stored in a catalog column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeFloat
	TypeInteger
	TypeBoolean
)

func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeFloat:
		return "float"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Catalog column names.
const (
	ColID                  = "id"
	ColMap                 = "Map"
	ColGamemode            = "Gamemode"
	ColVersion             = "LayerVersion"
	ColLayer               = "Layer"
	ColSize                = "Size"
	ColFaction1            = "Faction_1"
	ColUnit1               = "SubFac_1"
	ColFaction2            = "Faction_2"
	ColUnit2               = "SubFac_2"
	ColAlliance1           = "Alliance_1"
	ColAlliance2           = "Alliance_2"
	ColScored              = "Scored"
	ColZPool               = "Z_Pool"
	ColBalanceDifferential = "Balance_Differential"
	ColAsymmetryScore      = "Asymmetry_Score"
)

// Paired composite columns. They have no storage of their own; each
// expands to the two per-team slot columns.
const (
	ColFactionMatchup = "FactionMatchup"
	ColFullMatchup    = "FullMatchup"
	ColUnitMatchup    = "SubFacMatchup"
)

// Column describes one filterable column.
type Column struct {
	Name string
	Type ColumnType

	// Paired is set for order-independent team pairs.
	Paired bool
}

var columns = map[string]Column{
	ColID:                  {Name: ColID, Type: TypeString},
	ColMap:                 {Name: ColMap, Type: TypeString},
	ColGamemode:            {Name: ColGamemode, Type: TypeString},
	ColVersion:             {Name: ColVersion, Type: TypeString},
	ColLayer:               {Name: ColLayer, Type: TypeString},
	ColSize:                {Name: ColSize, Type: TypeString},
	ColFaction1:            {Name: ColFaction1, Type: TypeString},
	ColUnit1:               {Name: ColUnit1, Type: TypeString},
	ColFaction2:            {Name: ColFaction2, Type: TypeString},
	ColUnit2:               {Name: ColUnit2, Type: TypeString},
	ColAlliance1:           {Name: ColAlliance1, Type: TypeString},
	ColAlliance2:           {Name: ColAlliance2, Type: TypeString},
	ColScored:              {Name: ColScored, Type: TypeBoolean},
	ColZPool:               {Name: ColZPool, Type: TypeBoolean},
	ColBalanceDifferential: {Name: ColBalanceDifferential, Type: TypeFloat},
	ColAsymmetryScore:      {Name: ColAsymmetryScore, Type: TypeFloat},
	ColFactionMatchup:      {Name: ColFactionMatchup, Type: TypeString, Paired: true},
	ColFullMatchup:         {Name: ColFullMatchup, Type: TypeString, Paired: true},
	ColUnitMatchup:         {Name: ColUnitMatchup, Type: TypeString, Paired: true},
}

// StoredColumns lists the physical catalog columns in schema order.
var StoredColumns = []string{
	ColID, ColMap, ColGamemode, ColVersion, ColLayer, ColSize,
	ColFaction1, ColUnit1, ColFaction2, ColUnit2, ColAlliance1, ColAlliance2,
	ColScored, ColZPool, ColBalanceDifferential, ColAsymmetryScore,
}

// LookupColumn returns the registry entry for name.
func LookupColumn(name string) (Column, bool) {
	c, ok := columns[name]
	return c, ok
}

// IsStored reports whether name is a physical column (not a paired composite).
func IsStored(name string) bool {
	c, ok := columns[name]
	return ok && !c.Paired
}

// Row is one catalog row keyed by column name, as returned by the
// catalog before decoding.
type Row map[string]any

// ToRow encodes l into its stored representation. Booleans are stored
// as 0/1 integers.
func (l Layer) ToRow() Row {
	return Row{
		ColID:                  l.ID,
		ColMap:                 l.Map,
		ColGamemode:            l.Gamemode,
		ColVersion:             l.Version,
		ColLayer:               l.Layer,
		ColSize:                l.Size,
		ColFaction1:            l.Faction1,
		ColUnit1:               l.Unit1,
		ColFaction2:            l.Faction2,
		ColUnit2:               l.Unit2,
		ColAlliance1:           l.Alliance1,
		ColAlliance2:           l.Alliance2,
		ColScored:              boolToInt(l.Scored),
		ColZPool:               boolToInt(l.ZPool),
		ColBalanceDifferential: l.BalanceDifferential,
		ColAsymmetryScore:      l.AsymmetryScore,
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// FromRow decodes a stored row back into a Layer. Missing columns are
// left zero; an absent id is filled by re-encoding the base fields.
func FromRow(row Row) (Layer, error) {
	var l Layer
	var err error

	str := func(col string, dst *string) {
		if err != nil {
			return
		}
		*dst, err = AsString(row[col])
		if err != nil {
			err = fmt.Errorf("column %s: %w", col, err)
		}
	}
	str(ColID, &l.ID)
	str(ColMap, &l.Map)
	str(ColGamemode, &l.Gamemode)
	str(ColVersion, &l.Version)
	str(ColLayer, &l.Layer)
	str(ColSize, &l.Size)
	str(ColFaction1, &l.Faction1)
	str(ColUnit1, &l.Unit1)
	str(ColFaction2, &l.Faction2)
	str(ColUnit2, &l.Unit2)
	str(ColAlliance1, &l.Alliance1)
	str(ColAlliance2, &l.Alliance2)
	if err != nil {
		return Layer{}, err
	}

	if l.Scored, err = AsBool(row[ColScored]); err != nil {
		return Layer{}, fmt.Errorf("column %s: %w", ColScored, err)
	}
	if l.ZPool, err = AsBool(row[ColZPool]); err != nil {
		return Layer{}, fmt.Errorf("column %s: %w", ColZPool, err)
	}
	if l.BalanceDifferential, err = AsFloat(row[ColBalanceDifferential]); err != nil {
		return Layer{}, fmt.Errorf("column %s: %w", ColBalanceDifferential, err)
	}
	if l.AsymmetryScore, err = AsFloat(row[ColAsymmetryScore]); err != nil {
		return Layer{}, fmt.Errorf("column %s: %w", ColAsymmetryScore, err)
	}

	l.Gamemode = CanonicalGamemode(l.Gamemode)
	if l.ID == "" && l.Map != "" {
		l.ID = l.Encode()
	}
	if l.Layer == "" && l.Map != "" {
		l.Layer = l.LayerName()
	}
	return l, nil
}

// AsString converts a stored value to a string. nil decodes as "".
func AsString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	default:
		return "", fmt.Errorf("expected text, got %T", v)
	}
}

// AsBool converts a stored 0/1 integer (or a bool) to a bool.
func AsBool(v any) (bool, error) {
	switch val := v.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case int64:
		return val != 0, nil
	case int:
		return val != 0, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

// AsFloat converts a stored numeric value to float64.
func AsFloat(v any) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case int:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
