package repeat

import (
	"slices"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
)

// Window is ordered history (oldest → newest) plus what is needed to
// read it: the parity of the first item and a way to resolve layer ids.
type Window struct {
	Items       []Item
	FirstParity int

	// Resolve looks up history layers. nil means ParseResolver(Alliances).
	Resolve Resolver

	// Alliances maps factions for FieldAlliance rules. It is the only
	// alliance source: stored alliance columns are never read, and an
	// unmapped faction has no alliance.
	Alliances layer.Alliances
}

// role is a normalized team.
type role int

const (
	roleNone role = iota
	roleA
	roleB
)

// entry is one concrete history layer inside the window.
type entry struct {
	item   Item
	layer  layer.Layer
	parity int
}

// hit is one collected value and where it came from.
type hit struct {
	value string
	role  role
	entry int // index into entries
}

func parityAt(first, offset int) int {
	return ((first+offset)%2 + 2) % 2
}

// slotOf returns the physical slot (1 or 2) holding team r under parity.
func slotOf(r role, parity int) int {
	if (r == roleA) == (parity == 0) {
		return 1
	}
	return 2
}

// TargetParity is the parity of the slot right after the history.
func (w Window) TargetParity() int {
	return parityAt(w.FirstParity, len(w.Items))
}

// entries returns the concrete layers in the last within slots.
func (w Window) entries(within int) []entry {
	if within <= 0 || len(w.Items) == 0 {
		return nil
	}
	resolve := w.Resolve
	if resolve == nil {
		resolve = ParseResolver(w.Alliances)
	}

	start := max(0, len(w.Items)-within)
	var out []entry
	for i := start; i < len(w.Items); i++ {
		parity := parityAt(w.FirstParity, i)
		slot := w.Items[i]
		members := []Item{slot}
		if slot.IsVote() {
			members = Coalesce(slot.Choices)
		}
		for _, member := range members {
			l, ok := resolve(member.LayerID)
			if !ok {
				continue
			}
			out = append(out, entry{item: member, layer: l, parity: parity})
		}
	}
	return out
}

// fieldValue reads a rule field from l; for team fields r picks the
// normalized team under parity.
func (w Window) fieldValue(f Field, l layer.Layer, r role, parity int) string {
	switch f {
	case FieldMap:
		return l.Map
	case FieldGamemode:
		return l.Gamemode
	case FieldLayer:
		return l.Layer
	case FieldSize:
		return l.Size
	case FieldFaction, FieldAlliance:
		faction, _, _ := l.Side(slotOf(r, parity))
		if f == FieldFaction {
			return faction
		}
		alliance, _ := w.Alliances.Lookup(faction)
		return alliance
	default:
		return ""
	}
}

// collect gathers the values a rule tracks from the window entries.
func (w Window) collect(rule Rule, entries []entry) []hit {
	roles := []role{roleNone}
	if rule.Field.teamBased() {
		roles = []role{roleA, roleB}
	}

	var hits []hit
	for i, e := range entries {
		for _, r := range roles {
			v := w.fieldValue(rule.Field, e.layer, r, e.parity)
			if v == "" {
				continue
			}
			if len(rule.TargetValues) > 0 && !slices.Contains(rule.TargetValues, v) {
				continue
			}
			hits = append(hits, hit{value: v, role: r, entry: i})
		}
	}
	return hits
}

// Predicate builds a predicate excluding every value the rule collects
// from the window. For faction and alliance rules each normalized team
// is excluded independently, on the faction column that team occupies
// at the target's parity; alliances are expanded to their factions
// through Alliances so both backends read the same table.
func (w Window) Predicate(rule Rule) queryir.Predicate {
	if rule.Within <= 0 {
		return queryir.True
	}
	hits := w.collect(rule, w.entries(rule.Within))
	if len(hits) == 0 {
		return queryir.True
	}

	if !rule.Field.teamBased() {
		return notIn(rule.Field.column(), valuesFor(hits, roleNone))
	}

	target := w.TargetParity()
	var parts []queryir.Predicate
	for _, r := range []role{roleA, roleB} {
		values := valuesFor(hits, r)
		if rule.Field == FieldAlliance {
			values = w.Alliances.Factions(values...)
		}
		if len(values) == 0 {
			continue
		}
		parts = append(parts, notIn(factionColumn(slotOf(r, target)), values))
	}
	return queryir.AllOf(parts...)
}

// Violations lists, for one candidate, every prior entry whose value
// for the rule's field equals the candidate's. At most one violation is
// reported per entry.
func (w Window) Violations(constraintID string, rule Rule, candidate layer.Layer) []Violation {
	if rule.Within <= 0 {
		return nil
	}
	entries := w.entries(rule.Within)
	hits := w.collect(rule, entries)

	target := w.TargetParity()
	reported := make(map[int]bool)
	var out []Violation
	for _, h := range hits {
		if reported[h.entry] {
			continue
		}
		if w.fieldValue(rule.Field, candidate, h.role, target) != h.value {
			continue
		}
		reported[h.entry] = true
		out = append(out, Violation{
			ConstraintID: constraintID,
			Field:        rule.Field,
			ReasonItem:   entries[h.entry].item,
		})
	}
	return out
}

// Values returns the distinct values the rule currently blocks, for
// display.
func (w Window) Values(rule Rule) []string {
	if rule.Within <= 0 {
		return nil
	}
	hits := w.collect(rule, w.entries(rule.Within))
	return valuesFor(hits, anyRole)
}

const anyRole role = -1

func valuesFor(hits []hit, r role) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range hits {
		if r != anyRole && h.role != r {
			continue
		}
		if !seen[h.value] {
			seen[h.value] = true
			out = append(out, h.value)
		}
	}
	return out
}

func notIn(column string, values []string) queryir.Predicate {
	return queryir.Not{Predicate: queryir.In{Column: column, Values: queryir.StringValues(values)}}
}

func factionColumn(slot int) string {
	if slot == 1 {
		return layer.ColFaction1
	}
	return layer.ColFaction2
}
