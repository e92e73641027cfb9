package storage

import (
	"context"
	"testing"
)

func TestLoadSettingsDefaults(t *testing.T) {
	db := setupTestDB(t)

	settings, err := db.LoadSettings(context.Background())
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if !settings.AccessManagement {
		t.Error("access management should default to enabled")
	}
	if len(settings.AdminUserIDs) != 0 {
		t.Errorf("admin list should default empty, got %v", settings.AdminUserIDs)
	}
	if settings.UploadCategory != "" {
		t.Errorf("upload category should default empty, got %q", settings.UploadCategory)
	}
}

func TestSettingsWriteThrough(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	settings, err := db.SetAccessManagement(ctx, false)
	if err != nil {
		t.Fatalf("SetAccessManagement failed: %v", err)
	}
	if settings.AccessManagement {
		t.Error("expected access management disabled after write")
	}

	settings, err = db.SetUploadCategory(ctx, "image/neko/")
	if err != nil {
		t.Fatalf("SetUploadCategory failed: %v", err)
	}
	if settings.UploadCategory != "image/neko/" {
		t.Errorf("expected upload category image/neko/, got %q", settings.UploadCategory)
	}

	settings, err = db.SetAdminUserIDs(ctx, []string{"U1", "U2"})
	if err != nil {
		t.Fatalf("SetAdminUserIDs failed: %v", err)
	}
	if len(settings.AdminUserIDs) != 2 {
		t.Fatalf("expected 2 admins, got %v", settings.AdminUserIDs)
	}

	// Re-read from a fresh snapshot
	settings, err = db.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if settings.AccessManagement {
		t.Error("access management write did not persist")
	}
	if settings.UploadCategory != "image/neko/" {
		t.Error("upload category write did not persist")
	}
	if !settings.IsAdmin("U2") {
		t.Error("admin list write did not persist")
	}
}

func TestSettingsUpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.SetUploadCategory(ctx, "image/a/"); err != nil {
		t.Fatal(err)
	}
	settings, err := db.SetUploadCategory(ctx, "image/b/")
	if err != nil {
		t.Fatal(err)
	}
	if settings.UploadCategory != "image/b/" {
		t.Errorf("expected second write to win, got %q", settings.UploadCategory)
	}
}

func TestAllowAccess(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		userID   string
		want     bool
	}{
		{
			name:     "management disabled allows everyone",
			settings: Settings{AccessManagement: false},
			userID:   "Uanyone",
			want:     true,
		},
		{
			name:     "management enabled rejects non-admin",
			settings: Settings{AccessManagement: true, AdminUserIDs: []string{"Uadmin"}},
			userID:   "Uother",
			want:     false,
		},
		{
			name:     "management enabled allows admin",
			settings: Settings{AccessManagement: true, AdminUserIDs: []string{"Uadmin"}},
			userID:   "Uadmin",
			want:     true,
		},
		{
			name:     "management enabled with empty admin list rejects all",
			settings: Settings{AccessManagement: true},
			userID:   "Uanyone",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.AllowAccess(tt.userID); got != tt.want {
				t.Errorf("AllowAccess(%q) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}
