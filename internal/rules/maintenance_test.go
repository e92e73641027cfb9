package rules

import (
	"context"
	"testing"

	"github.com/ymgch/hime-linebot-go/internal/mediastore"
	"github.com/ymgch/hime-linebot-go/internal/storage"
)

func TestRegenerateThumbnails(t *testing.T) {
	db := setupTestDB(t)
	media := newFakeMedia()
	media.objects["image/neko/a.jpg"] = encodeTestJPEG(t, 640, 480)
	media.objects["image/neko/b.jpg"] = encodeTestJPEG(t, 320, 320)
	media.objects["image/neko/thumb/a.jpg"] = []byte("stale thumb")
	media.objects["image/kitada/broken.jpg"] = []byte("not a jpeg")

	maint := NewMaintenance(db, media, &fakeFetcher{}, testLogger(), testMetrics(), 240)

	count, err := maint.RegenerateThumbnails(context.Background())
	if err != nil {
		t.Fatalf("RegenerateThumbnails failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 regenerated thumbnails", count)
	}

	for _, key := range []string{"image/neko/a.jpg", "image/neko/b.jpg"} {
		thumb, ok := media.objects[mediastore.ThumbKey(key)]
		if !ok {
			t.Errorf("missing thumbnail for %s", key)
			continue
		}
		if string(thumb) == "stale thumb" {
			t.Errorf("thumbnail for %s was not rewritten", key)
		}
	}
	if _, ok := media.objects[mediastore.ThumbKey("image/kitada/broken.jpg")]; ok {
		t.Error("broken source must not produce a thumbnail")
	}
}

func TestRegenerateThumbnailsEmptyBucket(t *testing.T) {
	maint := NewMaintenance(setupTestDB(t), newFakeMedia(), &fakeFetcher{}, testLogger(), testMetrics(), 240)

	count, err := maint.RegenerateThumbnails(context.Background())
	if err != nil {
		t.Fatalf("RegenerateThumbnails failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestPruneThumbnails(t *testing.T) {
	media := newFakeMedia()
	media.objects["image/neko/a.jpg"] = []byte("original")
	media.objects["image/neko/thumb/a.jpg"] = []byte("paired thumb")
	media.objects["image/neko/thumb/gone.jpg"] = []byte("orphan")
	media.objects["image/kitada/thumb/lost.jpg"] = []byte("orphan")

	maint := NewMaintenance(setupTestDB(t), media, &fakeFetcher{}, testLogger(), testMetrics(), 240)

	count, err := maint.PruneThumbnails(context.Background())
	if err != nil {
		t.Fatalf("PruneThumbnails failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 orphans deleted", count)
	}

	if _, ok := media.objects["image/neko/thumb/a.jpg"]; !ok {
		t.Error("thumbnail with a living original must survive")
	}
	for _, key := range []string{"image/neko/thumb/gone.jpg", "image/kitada/thumb/lost.jpg"} {
		if _, ok := media.objects[key]; ok {
			t.Errorf("orphaned thumbnail %s still present", key)
		}
	}
}

func TestRefreshListings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SaveListing(ctx, &storage.Listing{
		EntityName: "tabelog",
		Name:       "ねこ食堂",
		URL:        ingestListingURL,
		Score:      3.10,
		Hours:      "10:00-21:00",
	}); err != nil {
		t.Fatalf("SaveListing failed: %v", err)
	}

	fetcher := &fakeFetcher{pages: map[string]string{ingestListingURL: ingestListingHTML}}
	maint := NewMaintenance(db, newFakeMedia(), fetcher, testLogger(), testMetrics(), 240)

	count, err := maint.RefreshListings(ctx)
	if err != nil {
		t.Fatalf("RefreshListings failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	listing, err := db.ListingByEntity(ctx, "tabelog")
	if err != nil {
		t.Fatalf("listing lookup failed: %v", err)
	}
	if listing.Score != 3.52 {
		t.Errorf("score = %v, want refreshed value", listing.Score)
	}
	if listing.Hours != "11:00-22:00" {
		t.Errorf("hours = %q, want refreshed value", listing.Hours)
	}
}

func TestRefreshListingsSkipsFailures(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SaveListing(ctx, &storage.Listing{
		Name: "消えたお店",
		URL:  "https://tabelog.com/tokyo/A9999/A999901/99000001/",
	}); err != nil {
		t.Fatalf("SaveListing failed: %v", err)
	}

	maint := NewMaintenance(db, newFakeMedia(), &fakeFetcher{}, testLogger(), testMetrics(), 240)

	count, err := maint.RefreshListings(ctx)
	if err != nil {
		t.Fatalf("RefreshListings failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 when every fetch fails", count)
	}
}
