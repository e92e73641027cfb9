package storage

import (
	"context"
	"testing"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestResolveIntentExact(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.AddIntent(ctx, "show_settings", "せってい", 10); err != nil {
		t.Fatalf("AddIntent failed: %v", err)
	}

	match, err := db.ResolveIntent(ctx, "せってい", true)
	if err != nil {
		t.Fatalf("ResolveIntent failed: %v", err)
	}
	if !match.Matched {
		t.Fatal("expected a match")
	}
	if match.Name != "show_settings" {
		t.Errorf("expected name show_settings, got %q", match.Name)
	}
	if match.Position != 1 {
		t.Errorf("expected position 1 for exact match, got %d", match.Position)
	}

	// Exact mode must not match on containment
	match, err = db.ResolveIntent(ctx, "せっていをみせて", true)
	if err != nil {
		t.Fatalf("ResolveIntent failed: %v", err)
	}
	if match.Matched {
		t.Error("exact mode should not match substrings")
	}
}

func TestResolveIntentPartial(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.AddIntent(ctx, "show_settings", "せってい", 10); err != nil {
		t.Fatalf("AddIntent failed: %v", err)
	}

	match, err := db.ResolveIntent(ctx, "いまのせっていをみせて", false)
	if err != nil {
		t.Fatalf("ResolveIntent failed: %v", err)
	}
	if !match.Matched {
		t.Fatal("expected a partial match")
	}
	// "せってい" starts at the 4th rune (1-based) of "いまのせっていをみせて"
	if match.Position != 4 {
		t.Errorf("expected position 4, got %d", match.Position)
	}
}

func TestResolveWeightOrdering(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.AddEntity(ctx, "neko", "ねこ", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddEntity(ctx, "hime", "ねこさま", 5); err != nil {
		t.Fatal(err)
	}

	match, err := db.ResolveEntity(ctx, "ねこさまのしゃしん", false)
	if err != nil {
		t.Fatalf("ResolveEntity failed: %v", err)
	}
	if !match.Matched || match.Name != "hime" {
		t.Errorf("expected highest-weight match hime, got %+v", match)
	}
}

func TestResolveTiePositionPointsAtOwnKeyword(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Equal weights: the store may return either row, but the reported
	// position must locate the returned row's own keyword in the input.
	if _, err := db.AddEntity(ctx, "a", "いぬ", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddEntity(ctx, "b", "ねこ", 0); err != nil {
		t.Fatal(err)
	}

	input := "いぬとねこ"
	match, err := db.ResolveEntity(ctx, input, false)
	if err != nil {
		t.Fatalf("ResolveEntity failed: %v", err)
	}
	if !match.Matched {
		t.Fatal("expected a match")
	}

	wantPos := map[string]int{"いぬ": 1, "ねこ": 4}[match.Keyword]
	if match.Position != wantPos {
		t.Errorf("keyword %q reported position %d, want %d", match.Keyword, match.Position, wantPos)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.AddIntent(ctx, "anything", "a", 0); err != nil {
		t.Fatal(err)
	}

	for _, exact := range []bool{true, false} {
		match, err := db.ResolveIntent(ctx, "", exact)
		if err != nil {
			t.Fatalf("ResolveIntent failed: %v", err)
		}
		if match.Matched {
			t.Errorf("empty input must never match (exact=%v)", exact)
		}
		if match.ID != 0 || match.Name != "" || match.Position != 0 {
			t.Errorf("unmatched result must carry zero values, got %+v", match)
		}
	}
}

func TestResolveNoRows(t *testing.T) {
	db := setupTestDB(t)

	match, err := db.ResolveEntity(context.Background(), "なにか", false)
	if err != nil {
		t.Fatalf("ResolveEntity failed: %v", err)
	}
	if match.Matched {
		t.Error("expected no match on empty table")
	}
}

func TestEntityCategory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.AddEntity(ctx, "neko", "ねこ", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AddEntityCategory(ctx, id, "image/neko/", 1); err != nil {
		t.Fatal(err)
	}
	if err := db.AddEntityCategory(ctx, id, "image/special/", 0); err != nil {
		t.Fatal(err)
	}

	category, err := db.EntityCategory(ctx, id)
	if err != nil {
		t.Fatalf("EntityCategory failed: %v", err)
	}
	if category != "image/neko/" {
		t.Errorf("expected highest-weight category image/neko/, got %q", category)
	}

	// Unknown entity yields empty category, not an error
	category, err = db.EntityCategory(ctx, 9999)
	if err != nil {
		t.Fatalf("EntityCategory failed: %v", err)
	}
	if category != "" {
		t.Errorf("expected empty category for unknown entity, got %q", category)
	}
}

func TestEntityRepliesOrdering(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.AddEntity(ctx, "neko", "ねこ", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AddEntityReply(ctx, id, 2, "second"); err != nil {
		t.Fatal(err)
	}
	if err := db.AddEntityReply(ctx, id, 1, "first"); err != nil {
		t.Fatal(err)
	}

	replies, err := db.EntityReplies(ctx, id)
	if err != nil {
		t.Fatalf("EntityReplies failed: %v", err)
	}
	if len(replies) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(replies))
	}
	if replies[0] != "first" || replies[1] != "second" {
		t.Errorf("replies not ordered by reply_order: %v", replies)
	}
}
