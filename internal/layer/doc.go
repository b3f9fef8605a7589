// Package layer defines the catalog record this module selects from: a
// single map/gamemode/version/faction combination ("layer").
//
// A layer is keyed by a reversible composite identifier:
//
//	<Map>-<Gamemode>[-<Version>][:<Faction>[-<Unit>]:<Faction>[-<Unit>]]
//
// e.g. "Narva-RAAS-V1:RGF-CA:USA-AA". Parse and Encode round-trip any
// identifier Encode produces. Legacy gamemode names are folded to their
// current name by Parse (see GamemodeAliases), which is the only lossy
// normalization.
//
// The package also owns the column registry: the set of catalog columns
// a constraint may reference, their value types, and which of them are
// paired composites (order-independent team pairs).
//
// This package imports nothing internal.
package layer
