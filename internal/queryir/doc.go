// Package queryir provides the predicate intermediate representation
// shared by the constraint compiler, the repeat-window evaluator and the
// catalog backends.
//
// ARCHITECTURE:
//
//	[FilterNode / RepeatRule] → [queryir.Predicate] → [SQL backend]  (querysql)
//	                                                → [in-memory]    (Eval)
//
// Producers build predicates without knowing which backend will run
// them. The SQL backend compiles them to parameterized SQLite; Eval runs
// them directly against a decoded row, which the generator's in-memory
// narrowing and the tests rely on.
//
// SEALED INTERFACE:
//
// Predicate is sealed with a marker method. Only types in this package
// implement it, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case Const:
//	case Compare:
//	case In:
//	case And:
//	case Or:
//	case Not:
//	}
//
// VALUES:
//
// Literal values are normalized by NormalizeValue to one of string,
// float64, int64 or bool. Boolean columns are stored as 0/1 integers;
// both backends compare a bool literal against them as 0/1.
//
// EMPTY COMBINATORS:
//
// And{} is vacuously true and Or{} is vacuously false. Clearing every
// filter in a UI produces exactly these shapes, so both backends treat
// them as first-class values rather than errors.
package queryir
