package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createIntentsTable(ctx, db); err != nil {
		return err
	}
	if err := createEntitiesTable(ctx, db); err != nil {
		return err
	}
	if err := createSettingsTable(ctx, db); err != nil {
		return err
	}
	if err := createListingsTable(ctx, db); err != nil {
		return err
	}
	return createRecentPicksTable(ctx, db)
}

func createIntentsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS intents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		keyword TEXT NOT NULL,
		weight INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_intents_keyword ON intents(keyword);
	CREATE INDEX IF NOT EXISTS idx_intents_weight ON intents(weight);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create intents table: %w", err)
	}

	return nil
}

func createEntitiesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		keyword TEXT NOT NULL,
		weight INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_entities_keyword ON entities(keyword);
	CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);

	CREATE TABLE IF NOT EXISTS entity_categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		weight INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_entity_categories_entity ON entity_categories(entity_id);

	CREATE TABLE IF NOT EXISTS entity_replies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		reply_order INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entity_replies_entity ON entity_replies(entity_id);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create entities tables: %w", err)
	}

	return nil
}

func createSettingsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}

	return nil
}

func createListingsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		image_key TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL UNIQUE,
		score REAL NOT NULL DEFAULT 0,
		station TEXT NOT NULL DEFAULT '',
		genre TEXT NOT NULL DEFAULT '',
		hours TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_listings_entity_name ON listings(entity_name);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create listings table: %w", err)
	}

	return nil
}

func createRecentPicksTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS recent_picks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		object_key TEXT NOT NULL,
		picked_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recent_picks_category ON recent_picks(category, id);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create recent_picks table: %w", err)
	}

	return nil
}
