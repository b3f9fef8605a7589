package layer

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Layer is one catalog record.
type Layer struct {
	ID       string `json:"id" yaml:"id"`
	Map      string `json:"map" yaml:"map"`
	Gamemode string `json:"gamemode" yaml:"gamemode"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	Layer    string `json:"layer" yaml:"layer"`
	Size     string `json:"size,omitempty" yaml:"size,omitempty"`

	Faction1  string `json:"faction_1,omitempty" yaml:"faction_1,omitempty"`
	Unit1     string `json:"unit_1,omitempty" yaml:"unit_1,omitempty"`
	Faction2  string `json:"faction_2,omitempty" yaml:"faction_2,omitempty"`
	Unit2     string `json:"unit_2,omitempty" yaml:"unit_2,omitempty"`
	Alliance1 string `json:"alliance_1,omitempty" yaml:"alliance_1,omitempty"`
	Alliance2 string `json:"alliance_2,omitempty" yaml:"alliance_2,omitempty"`

	Scored              bool    `json:"scored" yaml:"scored"`
	ZPool               bool    `json:"z_pool" yaml:"z_pool"`
	BalanceDifferential float64 `json:"balance_differential" yaml:"balance_differential"`
	AsymmetryScore      float64 `json:"asymmetry_score" yaml:"asymmetry_score"`
}

// GamemodeAliases maps retired gamemode names to their current name.
// Parse applies it; Encode always writes the current name.
var GamemodeAliases = map[string]string{
	"TerritoryControl": "TC",
	"Skirm":            "Skirmish",
}

// ParseError reports a malformed layer identifier.
type ParseError struct {
	ID     string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid layer id %q: %s", e.ID, e.Reason)
}

// Parse decodes an identifier into a Layer with ID, Map, Gamemode, Version,
// Layer and both faction/unit pairs populated. Catalog-only attributes
// (size, alliances, scores) are left zero.
func Parse(id string) (Layer, error) {
	id = norm.NFC.String(strings.TrimSpace(id))
	if id == "" {
		return Layer{}, &ParseError{ID: id, Reason: "empty"}
	}

	sections := strings.Split(id, ":")
	if len(sections) != 1 && len(sections) != 3 {
		return Layer{}, &ParseError{ID: id, Reason: "expected 0 or 2 team sections"}
	}

	head := strings.Split(sections[0], "-")
	if len(head) < 2 || len(head) > 3 {
		return Layer{}, &ParseError{ID: id, Reason: "expected <map>-<gamemode>[-<version>]"}
	}
	for _, part := range head {
		if part == "" {
			return Layer{}, &ParseError{ID: id, Reason: "empty map, gamemode or version"}
		}
	}

	l := Layer{
		Map:      head[0],
		Gamemode: CanonicalGamemode(head[1]),
	}
	if len(head) == 3 {
		l.Version = head[2]
	}

	if len(sections) == 3 {
		var err error
		if l.Faction1, l.Unit1, err = parseTeam(sections[1]); err != nil {
			return Layer{}, &ParseError{ID: id, Reason: "team 1: " + err.Error()}
		}
		if l.Faction2, l.Unit2, err = parseTeam(sections[2]); err != nil {
			return Layer{}, &ParseError{ID: id, Reason: "team 2: " + err.Error()}
		}
	}

	l.Layer = l.LayerName()
	l.ID = l.Encode()
	return l, nil
}

func parseTeam(s string) (faction, unit string, err error) {
	parts := strings.Split(s, "-")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return parts[0], "", nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("expected <faction>[-<unit>], got %q", s)
	}
}

// CanonicalGamemode folds a legacy gamemode name to its current name.
func CanonicalGamemode(gamemode string) string {
	if current, ok := GamemodeAliases[gamemode]; ok {
		return current
	}
	return gamemode
}

// Encode produces the identifier for l from its base fields.
func (l Layer) Encode() string {
	var b strings.Builder
	b.WriteString(l.Map)
	b.WriteByte('-')
	b.WriteString(CanonicalGamemode(l.Gamemode))
	if l.Version != "" {
		b.WriteByte('-')
		b.WriteString(l.Version)
	}
	if l.Faction1 != "" || l.Faction2 != "" {
		b.WriteByte(':')
		b.WriteString(TeamString(l.Faction1, l.Unit1))
		b.WriteByte(':')
		b.WriteString(TeamString(l.Faction2, l.Unit2))
	}
	return b.String()
}

// LayerName is the in-game layer name, e.g. "Narva_RAAS_V1".
func (l Layer) LayerName() string {
	name := l.Map + "_" + CanonicalGamemode(l.Gamemode)
	if l.Version != "" {
		name += "_" + l.Version
	}
	return name
}

// TeamString joins a faction and unit the way identifiers and the
// FullMatchup column spell a team: "USA-CA", or "USA" with no unit.
func TeamString(faction, unit string) string {
	if unit == "" {
		return faction
	}
	return faction + "-" + unit
}

// SplitTeamString is the inverse of TeamString.
func SplitTeamString(team string) (faction, unit string) {
	faction, unit, _ = strings.Cut(team, "-")
	return faction, unit
}

// Side returns the faction, unit and alliance physically in slot 1 or 2.
func (l Layer) Side(slot int) (faction, unit, alliance string) {
	if slot == 2 {
		return l.Faction2, l.Unit2, l.Alliance2
	}
	return l.Faction1, l.Unit1, l.Alliance1
}

// FactionMatchup is the order-independent faction pair.
func (l Layer) FactionMatchup() [2]string {
	return sortedPair(l.Faction1, l.Faction2)
}

// FullMatchup is the order-independent pair of full team strings.
func (l Layer) FullMatchup() [2]string {
	return sortedPair(TeamString(l.Faction1, l.Unit1), TeamString(l.Faction2, l.Unit2))
}

// UnitMatchup is the order-independent unit pair.
func (l Layer) UnitMatchup() [2]string {
	return sortedPair(l.Unit1, l.Unit2)
}

func sortedPair(a, b string) [2]string {
	pair := []string{a, b}
	sort.Strings(pair)
	return [2]string{pair[0], pair[1]}
}

// Alliances maps a faction to its alliance.
type Alliances map[string]string

// DefaultAlliances is the stock faction → alliance table.
var DefaultAlliances = Alliances{
	"ADF":    "BLUFOR",
	"BAF":    "BLUFOR",
	"CAF":    "BLUFOR",
	"USA":    "BLUFOR",
	"USMC":   "BLUFOR",
	"PLA":    "REDFOR",
	"PLAAGF": "REDFOR",
	"PLANMC": "REDFOR",
	"RGF":    "REDFOR",
	"VDV":    "REDFOR",
	"MEA":    "INDEPENDENT",
	"TLF":    "INDEPENDENT",
	"WPMC":   "INDEPENDENT",
	"IMF":    "PAC",
	"INS":    "PAC",
}

// Factions returns every faction mapped to one of alliances, sorted.
func (a Alliances) Factions(alliances ...string) []string {
	var out []string
	for faction, alliance := range a {
		if slices.Contains(alliances, alliance) {
			out = append(out, faction)
		}
	}
	slices.Sort(out)
	return out
}

// Lookup returns the alliance for faction, if mapped.
func (a Alliances) Lookup(faction string) (string, bool) {
	if a == nil || faction == "" {
		return "", false
	}
	alliance, ok := a[faction]
	return alliance, ok
}

// Fill sets the alliance columns from the factions when they are unset.
func (a Alliances) Fill(l *Layer) {
	if l.Alliance1 == "" {
		l.Alliance1, _ = a.Lookup(l.Faction1)
	}
	if l.Alliance2 == "" {
		l.Alliance2, _ = a.Lookup(l.Faction2)
	}
}
