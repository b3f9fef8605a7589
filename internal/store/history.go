package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/layerq/internal/repeat"
)

// AppendHistory records a played item at the end of the match history.
// Uses ON CONFLICT(item_id) DO NOTHING for idempotency - re-appending an
// item keeps its original position.
//
// Returns the item's seq.
func (s *Store) AppendHistory(ctx context.Context, item repeat.Item) (int64, error) {
	if item.ItemID == "" {
		return 0, fmt.Errorf("append history: item without id")
	}
	if item.LayerID == "" && !item.IsVote() {
		return 0, fmt.Errorf("append history %s: item has neither layer nor choices", item.ItemID)
	}

	choices, err := marshalChoices(item.Choices)
	if err != nil {
		return 0, fmt.Errorf("append history %s: %w", item.ItemID, err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO match_history (item_id, layer_id, choices)
		VALUES (?, ?, ?)
		ON CONFLICT(item_id) DO NOTHING
	`, item.ItemID, item.LayerID, choices); err != nil {
		return 0, fmt.Errorf("append history %s: %w", item.ItemID, err)
	}

	var seq int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT seq FROM match_history WHERE item_id = ?`, item.ItemID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("append history %s: read seq: %w", item.ItemID, err)
	}
	return seq, nil
}

// RecentHistory returns up to limit of the most recently played items,
// oldest first. limit <= 0 returns the whole history.
//
// Returns an empty slice (not nil) if the history is empty.
func (s *Store) RecentHistory(ctx context.Context, limit int) ([]repeat.Item, error) {
	query := `
		SELECT item_id, layer_id, choices
		FROM match_history
		ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	items := []repeat.Item{}
	for rows.Next() {
		var item repeat.Item
		var choices string
		if err := rows.Scan(&item.ItemID, &item.LayerID, &choices); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if item.Choices, err = unmarshalChoices(choices); err != nil {
			return nil, fmt.Errorf("history item %s: %w", item.ItemID, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	// Read newest first for the LIMIT; callers want oldest first.
	slices.Reverse(items)
	return items, nil
}

// HistoryLen returns the number of recorded items.
func (s *Store) HistoryLen(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}
