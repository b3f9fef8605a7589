// Package repeat evaluates do-not-repeat rules against ordered match
// history.
//
// A Rule forbids a field value (map, gamemode, layer, size, faction or
// alliance) that appeared in the last Within history slots. The same
// window can be consumed two ways:
//
//	Window.Predicate   excludes every recently seen value, for bulk
//	                   filtering in the catalog
//	Window.Violations  explains which prior entries block one concrete
//	                   candidate, for per-row diagnostics
//
// Both backends share one front half: slot selection, vote coalescing,
// parity and value collection. They cannot drift apart.
//
// PARITY:
//
// Teams swap physical sides between matches. Slot i of the history
// (0 = oldest supplied) has parity (FirstParity + i) mod 2; the
// candidate being evaluated sits right after the last slot. Under parity
// 0 normalized team A is physical slot 1, under parity 1 it is slot 2.
// Faction and alliance rules compare normalized teams, never raw slots.
//
// VOTES:
//
// A vote slot is not an entry itself; each of its choices becomes a
// virtual entry that shares the vote's slot position and parity.
package repeat
