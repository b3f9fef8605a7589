package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/layerq/internal/layer"
	"github.com/roach88/layerq/internal/queryir"
)

// Select runs a catalog read. Rows come back keyed by column name,
// computed columns included, in the deterministic order the compiler
// guarantees.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Select(ctx context.Context, q queryir.Select) ([]layer.Row, error) {
	query, params, err := s.compiler.CompileSelect(q)
	if err != nil {
		return nil, fmt.Errorf("select layers: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query layers: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read layer columns: %w", err)
	}

	result := []layer.Row{}
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate layers: %w", err)
	}

	return result, nil
}

// Count returns the number of layers matching where. A nil predicate
// counts every layer.
func (s *Store) Count(ctx context.Context, where queryir.Predicate) (int, error) {
	query, params, err := s.compiler.CompileCount(where)
	if err != nil {
		return 0, fmt.Errorf("count layers: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, params...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count layers: %w", err)
	}
	return count, nil
}

// SelectDistinct returns the distinct values of column among layers
// matching where, ordered by value.
func (s *Store) SelectDistinct(ctx context.Context, column string, where queryir.Predicate) ([]any, error) {
	query, params, err := s.compiler.CompileDistinct(column, where)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", column, err)
	}
	defer rows.Close()

	values := []any{}
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", column, err)
		}
		values = append(values, normalizeScanned(v))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct %s: %w", column, err)
	}

	return values, nil
}

// scanRow reads the current row into a column-keyed map.
func scanRow(rows *sql.Rows, columns []string) (layer.Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan layer: %w", err)
	}

	row := make(layer.Row, len(columns))
	for i, col := range columns {
		row[col] = normalizeScanned(values[i])
	}
	return row, nil
}

// normalizeScanned maps driver values onto the types layer.Row carries.
func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
