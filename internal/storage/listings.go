package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/ymgch/hime-linebot-go/internal/errors"
)

// SaveListing inserts a listing. Uniqueness is enforced by URL: inserting a
// URL that already exists returns ErrAlreadyExists and changes nothing.
func (db *DB) SaveListing(ctx context.Context, listing *Listing) error {
	known, err := db.HasListingURL(ctx, listing.URL)
	if err != nil {
		return err
	}
	if known {
		return fmt.Errorf("save listing %q: %w", listing.URL, domerrors.ErrAlreadyExists)
	}

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO listings (entity_name, name, image_key, url, score, station, genre, hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.EntityName, listing.Name, listing.ImageKey, listing.URL,
		listing.Score, listing.Station, listing.Genre, listing.Hours,
		time.Now().Unix())
	if err != nil {
		slog.ErrorContext(ctx, "failed to save listing",
			"url", listing.URL,
			"error", err)
		return fmt.Errorf("save listing: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		listing.ID = id
	}

	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "SaveListing",
			"duration_ms", duration.Milliseconds())
	}
	return nil
}

// HasListingURL reports whether a listing with the given URL exists.
func (db *DB) HasListingURL(ctx context.Context, url string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listings WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("has listing url: %w", err)
	}
	return count > 0, nil
}

// RandomListings returns up to n listings in random order.
func (db *DB) RandomListings(ctx context.Context, n int) ([]*Listing, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, entity_name, name, image_key, url, score, station, genre, hours, created_at
		FROM listings ORDER BY RANDOM() LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("random listings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanListings(rows)
}

// ListingByEntity returns the single listing pinned to the given entity
// name, or ErrNotFound.
func (db *DB) ListingByEntity(ctx context.Context, entityName string) (*Listing, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, entity_name, name, image_key, url, score, station, genre, hours, created_at
		FROM listings WHERE entity_name = ? LIMIT 1`, entityName)

	listing, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("listing for entity %q: %w", entityName, domerrors.ErrNotFound)
		}
		return nil, fmt.Errorf("listing by entity: %w", err)
	}
	return listing, nil
}

// AllListingURLs returns every stored listing URL. Used by the listing
// refresh maintenance job.
func (db *DB) AllListingURLs(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT url FROM listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("all listing urls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("all listing urls scan: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("all listing urls rows: %w", err)
	}
	return urls, nil
}

// UpdateListing refreshes the mutable fields of a listing identified by URL.
func (db *DB) UpdateListing(ctx context.Context, listing *Listing) error {
	// image_key is owned by the upload path and not touched here
	_, err := db.conn.ExecContext(ctx, `
		UPDATE listings SET name = ?, score = ?, station = ?, genre = ?, hours = ?
		WHERE url = ?`,
		listing.Name, listing.Score, listing.Station,
		listing.Genre, listing.Hours, listing.URL)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

// CountListings returns the number of stored listings.
func (db *DB) CountListings(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*Listing, error) {
	var l Listing
	err := row.Scan(&l.ID, &l.EntityName, &l.Name, &l.ImageKey, &l.URL,
		&l.Score, &l.Station, &l.Genre, &l.Hours, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanListings(rows *sql.Rows) ([]*Listing, error) {
	var listings []*Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing rows: %w", err)
	}
	return listings, nil
}
