// Package query is the layer query executor and procedural generator.
//
// An Engine owns no mutable state between calls. Every operation takes
// its constraints, history and paging as arguments, compiles them into
// one predicate (plus per-row computed flags) before touching the
// catalog, and only then reads.
//
// ARCHITECTURE:
//
//	Context ──► prepare ──► plan{where, computed, window}
//	                          │
//	            ┌─────────────┼──────────────────┐
//	            ▼             ▼                  ▼
//	       QueryLayers     Generate        LayersInPool / DistinctComponents
//	     (page + count)  (low / high        (membership, grouped values)
//	                      cardinality)
//	            │             │
//	            └──► hydrate ◄┘   constraint flags + violation descriptors
//
// The catalog is an explicit collaborator (Catalog); internal/store is the
// SQLite implementation. Filter entities come from a constraint.Lookup
// snapshot; a reference that disappears between calls surfaces as
// UNKNOWN_FILTER on the next call.
//
// CANCELLATION:
//
// Every catalog call takes the caller's context. The high-cardinality
// generator yields (runtime.Gosched) and checks ctx.Err() at each
// draw × column step, so a cancelled caller stops a long run promptly.
package query
