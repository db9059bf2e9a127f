package services

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slide-deck-platform/models"
)

// catalogTestStore connects to a throwaway database; tests are skipped when
// no MongoDB is reachable (set MONGO_TEST_URI to enable).
func catalogTestStore(t *testing.T) *CatalogStore {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("mongo connect failed: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("mongo ping failed: %v", err)
	}

	db := client.Database("slide_deck_test")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Collection("presentations").Drop(ctx)
		client.Disconnect(ctx)
	})

	return NewCatalogStore(db)
}

func storedPresentation(id string) *models.Presentation {
	return &models.Presentation{
		ID:           id,
		OriginalName: "deck.pptx",
		Title:        "Deck",
		Topics:       []string{"AI", "Testing"},
		Slides:       []string{"/slides/" + id + "/slide-1.jpg"},
		SlideTexts:   []string{"Slide 1"},
		SlideCount:   1,
		Converted:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestCatalogSaveIsIdempotent(t *testing.T) {
	store := catalogTestStore(t)
	ctx := context.Background()

	p := storedPresentation("idem-1")
	if err := store.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, rec := range all {
		if rec.ID == "idem-1" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one record, found %d", count)
	}
}

func TestCatalogSaveThenVerify(t *testing.T) {
	store := catalogTestStore(t)
	ctx := context.Background()

	if store.Verify(ctx, "missing-id") {
		t.Fatal("verify must fail for unknown ids")
	}

	p := storedPresentation("verify-1")
	if err := store.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	if !store.Verify(ctx, "verify-1") {
		t.Fatal("verify must succeed after save")
	}
}

func TestCatalogSoftDelete(t *testing.T) {
	store := catalogTestStore(t)
	ctx := context.Background()

	p := storedPresentation("del-1")
	if err := store.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.SoftDelete(ctx, "del-1")
	if err != nil || !deleted {
		t.Fatalf("soft delete failed: deleted=%v err=%v", deleted, err)
	}

	// Gone from default queries
	found, err := store.Find(ctx, "del-1")
	if err != nil {
		t.Fatal(err)
	}
	if found != nil {
		t.Fatal("deleted record still visible via Find")
	}

	// But the row survives for Verify (read-back by raw id)
	if !store.Verify(ctx, "del-1") {
		t.Fatal("soft delete must not remove the underlying row")
	}

	// Deleting twice reports not-found
	deleted, err = store.SoftDelete(ctx, "del-1")
	if err != nil {
		t.Fatal(err)
	}
	if deleted {
		t.Fatal("second delete of the same record should not match")
	}
}

func TestCatalogTopicSubstringMatch(t *testing.T) {
	store := catalogTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, storedPresentation("topic-1")); err != nil {
		t.Fatal(err)
	}

	for _, query := range []string{"AI", "ai", "a"} {
		matches, err := store.FindByTopic(ctx, query)
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, m := range matches {
			if m.ID == "topic-1" {
				found = true
			}
		}
		if !found {
			t.Fatalf("query %q did not match topic AI", query)
		}
	}
}

func TestCatalogIncrementView(t *testing.T) {
	store := catalogTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, storedPresentation("view-1")); err != nil {
		t.Fatal(err)
	}

	if err := store.IncrementView(ctx, "view-1"); err != nil {
		t.Fatal(err)
	}
	if err := store.IncrementView(ctx, "view-1"); err != nil {
		t.Fatal(err)
	}

	p, err := store.Find(ctx, "view-1")
	if err != nil || p == nil {
		t.Fatalf("find failed: %v", err)
	}
	if p.ViewCount != 2 {
		t.Fatalf("view count = %d, want 2", p.ViewCount)
	}
}

func TestCatalogPartialUpdate(t *testing.T) {
	store := catalogTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, storedPresentation("upd-1")); err != nil {
		t.Fatal(err)
	}

	newTitle := "Renamed Deck"
	matched, err := store.Update(ctx, "upd-1", &models.UpdateRequest{Title: &newTitle})
	if err != nil || !matched {
		t.Fatalf("update failed: matched=%v err=%v", matched, err)
	}

	p, err := store.Find(ctx, "upd-1")
	if err != nil || p == nil {
		t.Fatal("find after update failed")
	}
	if p.Title != "Renamed Deck" {
		t.Fatalf("title = %q", p.Title)
	}
	if p.OriginalName != "deck.pptx" {
		t.Fatal("untouched fields must survive a partial update")
	}

	matched, err = store.Update(ctx, "nope", &models.UpdateRequest{Title: &newTitle})
	if err != nil {
		t.Fatal(err)
	}
	if matched {
		t.Fatal("update of unknown id must not match")
	}
}
