package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// ResolveIntent returns the best intent match for the given normalized text.
// With exact=true a row qualifies only when its keyword equals the text;
// otherwise any row whose keyword appears inside the text qualifies. Among
// qualifying rows the one with the highest weight wins; equal weights fall
// back to store ordering. "No match" is not an error.
func (db *DB) ResolveIntent(ctx context.Context, text string, exact bool) (IntentMatch, error) {
	row, err := db.resolveKeyword(ctx, "intents", text, exact)
	if err != nil {
		return IntentMatch{}, fmt.Errorf("resolve intent: %w", err)
	}
	if row == nil {
		return IntentMatch{}, nil
	}
	return IntentMatch{
		ID:       row.id,
		Name:     row.name,
		Keyword:  row.keyword,
		Weight:   row.weight,
		Position: keywordPosition(text, row.keyword),
		Matched:  true,
	}, nil
}

// ResolveEntity returns the best entity match for the given normalized text.
// Same contract as ResolveIntent.
func (db *DB) ResolveEntity(ctx context.Context, text string, exact bool) (EntityMatch, error) {
	row, err := db.resolveKeyword(ctx, "entities", text, exact)
	if err != nil {
		return EntityMatch{}, fmt.Errorf("resolve entity: %w", err)
	}
	if row == nil {
		return EntityMatch{}, nil
	}
	return EntityMatch{
		ID:       row.id,
		Name:     row.name,
		Keyword:  row.keyword,
		Weight:   row.weight,
		Position: keywordPosition(text, row.keyword),
		Matched:  true,
	}, nil
}

type keywordRow struct {
	id      int64
	name    string
	keyword string
	weight  int
}

func (db *DB) resolveKeyword(ctx context.Context, table, text string, exact bool) (*keywordRow, error) {
	if text == "" {
		return nil, nil
	}

	var query string
	if exact {
		query = `SELECT id, name, keyword, weight FROM ` + table + `
			WHERE keyword = ?
			ORDER BY weight DESC LIMIT 1`
	} else {
		query = `SELECT id, name, keyword, weight FROM ` + table + `
			WHERE keyword <> '' AND instr(?, keyword) > 0
			ORDER BY weight DESC LIMIT 1`
	}

	start := time.Now()
	var row keywordRow
	err := db.conn.QueryRowContext(ctx, query, text).Scan(&row.id, &row.name, &row.keyword, &row.weight)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "keyword lookup failed",
			"table", table,
			"error", err)
		return nil, err
	}

	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "resolveKeyword",
			"table", table,
			"duration_ms", duration.Milliseconds())
	}

	return &row, nil
}

// keywordPosition returns the 1-based rune offset of keyword inside text,
// or 0 when the keyword does not occur.
func keywordPosition(text, keyword string) int {
	idx := strings.Index(text, keyword)
	if idx < 0 {
		return 0
	}
	return utf8.RuneCountInString(text[:idx]) + 1
}

// EntityCategory returns the storage category (bucket prefix) for an entity.
// Among ties in weight the pick is random, matching the store's historical
// behavior for entities with several candidate categories.
func (db *DB) EntityCategory(ctx context.Context, entityID int64) (string, error) {
	query := `SELECT category FROM entity_categories
		WHERE entity_id = ?
		ORDER BY weight DESC, RANDOM() LIMIT 1`

	var category string
	err := db.conn.QueryRowContext(ctx, query, entityID).Scan(&category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("entity category: %w", err)
	}
	return category, nil
}

// EntityReplies returns the canned reply texts for an entity ordered by
// reply_order, randomized within equal orders.
func (db *DB) EntityReplies(ctx context.Context, entityID int64) ([]string, error) {
	query := `SELECT text FROM entity_replies
		WHERE entity_id = ?
		ORDER BY reply_order ASC, RANDOM()`

	rows, err := db.conn.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("entity replies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("entity replies scan: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("entity replies rows: %w", err)
	}
	return texts, nil
}

// AddIntent inserts an intent keyword row. Used by seeding and tests.
func (db *DB) AddIntent(ctx context.Context, name, keyword string, weight int) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO intents (name, keyword, weight) VALUES (?, ?, ?)`,
		name, keyword, weight)
	if err != nil {
		return 0, fmt.Errorf("add intent: %w", err)
	}
	return result.LastInsertId()
}

// AddEntity inserts an entity keyword row. Used by seeding and tests.
func (db *DB) AddEntity(ctx context.Context, name, keyword string, weight int) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO entities (name, keyword, weight) VALUES (?, ?, ?)`,
		name, keyword, weight)
	if err != nil {
		return 0, fmt.Errorf("add entity: %w", err)
	}
	return result.LastInsertId()
}

// AddEntityCategory inserts a category row for an entity.
func (db *DB) AddEntityCategory(ctx context.Context, entityID int64, category string, weight int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO entity_categories (entity_id, category, weight) VALUES (?, ?, ?)`,
		entityID, category, weight)
	if err != nil {
		return fmt.Errorf("add entity category: %w", err)
	}
	return nil
}

// AddEntityReply inserts a canned reply row for an entity.
func (db *DB) AddEntityReply(ctx context.Context, entityID int64, order int, text string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO entity_replies (entity_id, reply_order, text) VALUES (?, ?, ?)`,
		entityID, order, text)
	if err != nil {
		return fmt.Errorf("add entity reply: %w", err)
	}
	return nil
}
