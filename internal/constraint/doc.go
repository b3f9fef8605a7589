// Package constraint compiles the user-composable constraint language
// into queryir predicates.
//
// A filter is a FilterNode tree: and/or blocks, comparison leaves and
// references to named, externally owned filter entities. Every node
// carries a negation flag that applies to its whole compiled subtree.
//
// Compile is pure. It resolves entity references through a point-in-time
// Lookup and threads the chain of entity ids currently being expanded
// through the recursion, so a self-referencing entity (directly or
// transitively) fails with RECURSIVE_FILTER instead of looping. The chain
// is a parameter, never shared state, which keeps concurrent compiles
// independent.
//
// Structural errors (RECURSIVE_FILTER, UNKNOWN_FILTER, INVALID_OPERAND)
// are returned before any catalog I/O happens; see CompileError.
//
// AnalyzeCycles runs the same cycle question over an entire entity table
// at once, for tooling that wants every cycle rather than the first one a
// compile happens to hit.
package constraint
