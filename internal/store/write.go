package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/layerq/internal/layer"
)

// upsertLayerSQL inserts a layer or refreshes every column of an
// existing one. Built from layer.StoredColumns so the two never drift.
var upsertLayerSQL = buildUpsertLayerSQL()

func buildUpsertLayerSQL() string {
	quoted := make([]string, len(layer.StoredColumns))
	placeholders := make([]string, len(layer.StoredColumns))
	var updates []string
	for i, col := range layer.StoredColumns {
		quoted[i] = `"` + col + `"`
		placeholders[i] = "?"
		if col != layer.ColID {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", quoted[i], quoted[i]))
		}
	}
	return fmt.Sprintf(
		"INSERT INTO layers (%s) VALUES (%s) ON CONFLICT(\"id\") DO UPDATE SET %s",
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

// LoadLayers upserts layers into the catalog in one transaction.
// Layers without an id are encoded from their fields first; an empty
// Layer column is filled with the derived layer name.
//
// Returns the number of layers written.
func (s *Store) LoadLayers(ctx context.Context, layers []layer.Layer) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("load layers: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertLayerSQL)
	if err != nil {
		return 0, fmt.Errorf("load layers: prepare: %w", err)
	}
	defer stmt.Close()

	for _, l := range layers {
		if l.ID == "" {
			l.ID = l.Encode()
		}
		if l.Layer == "" {
			l.Layer = l.LayerName()
		}
		row := l.ToRow()
		args := make([]any, len(layer.StoredColumns))
		for i, col := range layer.StoredColumns {
			args[i] = row[col]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("load layer %s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("load layers: commit: %w", err)
	}
	return len(layers), nil
}

// DeleteLayers removes layers by id. Missing ids are ignored.
func (s *Store) DeleteLayers(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM layers WHERE "id" IN (%s)`, strings.Join(placeholders, ", ")),
		args...)
	if err != nil {
		return 0, fmt.Errorf("delete layers: %w", err)
	}
	return res.RowsAffected()
}
