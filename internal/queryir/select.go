package queryir

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderKey is one ORDER BY term.
type OrderKey struct {
	Column    string
	Direction Direction
}

// Computed is a predicate evaluated per row and returned as a 0/1
// column instead of filtering.
type Computed struct {
	Name      string
	Predicate Predicate
}

// Select describes one read against the layer catalog.
//
// Backends always append an id tiebreak to OrderBy, so two identical
// Selects against the same catalog return rows in the same order.
type Select struct {
	// Columns to return. Empty means every stored column.
	Columns []string

	// Where filters rows. Nil matches every row.
	Where Predicate

	Computed []Computed
	OrderBy  []OrderKey

	// Limit <= 0 means no limit.
	Limit  int
	Offset int
}
