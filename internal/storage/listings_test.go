package storage

import (
	"context"
	"errors"
	"testing"

	domerrors "github.com/ymgch/hime-linebot-go/internal/errors"
)

func testListing(url, entityName string) *Listing {
	return &Listing{
		EntityName: entityName,
		Name:       "ねこ食堂",
		ImageKey:   "image/tabelog/abc.jpg",
		URL:        url,
		Score:      3.52,
		Station:    "渋谷駅",
		Genre:      "定食",
		Hours:      "11:00-22:00",
	}
}

func TestSaveListing(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	l := testListing("https://tabelog.com/tokyo/A1301/A130101/13000001/", "tabelog_neko")
	if err := db.SaveListing(ctx, l); err != nil {
		t.Fatalf("SaveListing failed: %v", err)
	}
	if l.ID == 0 {
		t.Error("SaveListing should set the row ID")
	}

	// Same URL again is rejected without a second row
	err := db.SaveListing(ctx, testListing("https://tabelog.com/tokyo/A1301/A130101/13000001/", "tabelog_neko"))
	if !errors.Is(err, domerrors.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	count, err := db.CountListings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 listing after duplicate save, got %d", count)
	}
}

func TestRandomListingsLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	urls := []string{
		"https://tabelog.com/tokyo/A1301/A130101/13000001/",
		"https://tabelog.com/tokyo/A1301/A130101/13000002/",
		"https://tabelog.com/tokyo/A1301/A130101/13000003/",
	}
	for _, u := range urls {
		if err := db.SaveListing(ctx, testListing(u, "tabelog")); err != nil {
			t.Fatal(err)
		}
	}

	listings, err := db.RandomListings(ctx, 2)
	if err != nil {
		t.Fatalf("RandomListings failed: %v", err)
	}
	if len(listings) != 2 {
		t.Errorf("expected 2 listings, got %d", len(listings))
	}

	// Asking for more than stored returns everything
	listings, err = db.RandomListings(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(listings) != 3 {
		t.Errorf("expected all 3 listings, got %d", len(listings))
	}
}

func TestListingByEntity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SaveListing(ctx, testListing("https://tabelog.com/tokyo/A1301/A130101/13000001/", "tabelog_sushi")); err != nil {
		t.Fatal(err)
	}

	listing, err := db.ListingByEntity(ctx, "tabelog_sushi")
	if err != nil {
		t.Fatalf("ListingByEntity failed: %v", err)
	}
	if listing.EntityName != "tabelog_sushi" {
		t.Errorf("unexpected entity name %q", listing.EntityName)
	}

	_, err = db.ListingByEntity(ctx, "tabelog_unknown")
	if !errors.Is(err, domerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateListing(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	url := "https://tabelog.com/tokyo/A1301/A130101/13000001/"
	if err := db.SaveListing(ctx, testListing(url, "tabelog")); err != nil {
		t.Fatal(err)
	}

	updated := testListing(url, "tabelog")
	updated.Score = 3.9
	updated.Hours = "10:00-23:00"
	if err := db.UpdateListing(ctx, updated); err != nil {
		t.Fatalf("UpdateListing failed: %v", err)
	}

	listing, err := db.ListingByEntity(ctx, "tabelog")
	if err != nil {
		t.Fatal(err)
	}
	if listing.Score != 3.9 {
		t.Errorf("expected updated score 3.9, got %v", listing.Score)
	}
	if listing.Hours != "10:00-23:00" {
		t.Errorf("expected updated hours, got %q", listing.Hours)
	}
}
