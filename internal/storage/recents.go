package storage

import (
	"context"
	"fmt"
	"time"
)

// recentPicksPerCategory bounds the rolling log; entries beyond the newest
// N per category are pruned on insert.
const recentPicksPerCategory = 5

// RecordPick appends an object key to the rolling log of served random
// picks for a category and prunes stale entries.
func (db *DB) RecordPick(ctx context.Context, category, objectKey string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO recent_picks (category, object_key, picked_at)
		VALUES (?, ?, ?)`,
		category, objectKey, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record pick: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		DELETE FROM recent_picks
		WHERE category = ? AND id NOT IN (
			SELECT id FROM recent_picks WHERE category = ?
			ORDER BY id DESC LIMIT ?
		)`,
		category, category, recentPicksPerCategory)
	if err != nil {
		return fmt.Errorf("prune picks: %w", err)
	}
	return nil
}

// RecentPicks returns the newest-first object keys recently served for a
// category. Used to avoid repeating the same random image back to back.
func (db *DB) RecentPicks(ctx context.Context, category string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT object_key FROM recent_picks
		WHERE category = ? ORDER BY id DESC LIMIT ?`,
		category, recentPicksPerCategory)
	if err != nil {
		return nil, fmt.Errorf("recent picks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("recent picks scan: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent picks rows: %w", err)
	}
	return keys, nil
}
