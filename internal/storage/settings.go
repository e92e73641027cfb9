package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Setting keys. Values are stored as strings; booleans use "true"/"false"
// and the admin list is comma-separated.
const (
	settingAccessManagement = "enable_access_management"
	settingAdminUserIDs     = "admin_user_ids"
	settingUploadCategory   = "current_upload_category"
)

// LoadSettings reads the three runtime flags and assembles one snapshot.
// Missing keys are backfilled with defaults: access management enabled,
// no admins, upload disabled. The snapshot is never cached across events.
func (db *DB) LoadSettings(ctx context.Context) (*Settings, error) {
	access, err := db.getSetting(ctx, settingAccessManagement, "true")
	if err != nil {
		return nil, err
	}
	admins, err := db.getSetting(ctx, settingAdminUserIDs, "")
	if err != nil {
		return nil, err
	}
	category, err := db.getSetting(ctx, settingUploadCategory, "")
	if err != nil {
		return nil, err
	}

	var adminIDs []string
	for _, id := range strings.Split(admins, ",") {
		if id = strings.TrimSpace(id); id != "" {
			adminIDs = append(adminIDs, id)
		}
	}

	return &Settings{
		AccessManagement: access == "true",
		AdminUserIDs:     adminIDs,
		UploadCategory:   category,
	}, nil
}

// SetAccessManagement writes the access-management flag through immediately
// and returns a freshly re-read snapshot.
func (db *DB) SetAccessManagement(ctx context.Context, enabled bool) (*Settings, error) {
	value := "false"
	if enabled {
		value = "true"
	}
	if err := db.putSetting(ctx, settingAccessManagement, value); err != nil {
		return nil, err
	}
	return db.LoadSettings(ctx)
}

// SetUploadCategory writes the active upload destination through immediately
// and returns a freshly re-read snapshot. An empty category disables uploads.
func (db *DB) SetUploadCategory(ctx context.Context, category string) (*Settings, error) {
	if err := db.putSetting(ctx, settingUploadCategory, category); err != nil {
		return nil, err
	}
	return db.LoadSettings(ctx)
}

// SetAdminUserIDs replaces the admin allow-list.
func (db *DB) SetAdminUserIDs(ctx context.Context, userIDs []string) (*Settings, error) {
	if err := db.putSetting(ctx, settingAdminUserIDs, strings.Join(userIDs, ",")); err != nil {
		return nil, err
	}
	return db.LoadSettings(ctx)
}

func (db *DB) getSetting(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fallback, nil
		}
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (db *DB) putSetting(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}
	return nil
}
