package services

import (
	"context"
	"strings"
	"testing"

	"slide-deck-platform/models"
)

// fakeCatalog backs the index with in-memory records
type fakeCatalog struct {
	records        []*models.Presentation
	findByTopicHit int
}

func (f *fakeCatalog) List(ctx context.Context) ([]*models.Presentation, error) {
	var live []*models.Presentation
	for _, p := range f.records {
		if !p.IsDeleted {
			live = append(live, p)
		}
	}
	return live, nil
}

func (f *fakeCatalog) FindByTopic(ctx context.Context, pattern string) ([]*models.Presentation, error) {
	f.findByTopicHit++
	var matches []*models.Presentation
	for _, p := range f.records {
		if p.IsDeleted {
			continue
		}
		for _, t := range p.Topics {
			if strings.Contains(strings.ToLower(t), strings.ToLower(pattern)) {
				matches = append(matches, p)
				break
			}
		}
	}
	return matches, nil
}

func testPresentation(id string, topics ...string) *models.Presentation {
	return &models.Presentation{
		ID:         id,
		Title:      "Deck " + id,
		Topics:     topics,
		Slides:     []string{"/slides/" + id + "/slide-1.jpg"},
		SlideTexts: []string{"Slide 1"},
		SlideCount: 1,
	}
}

func TestIndexRebuild(t *testing.T) {
	store := &fakeCatalog{records: []*models.Presentation{
		testPresentation("p1", "AI", "Go"),
		testPresentation("p2", "ai safety"),
		testPresentation("p3", "Databases"),
	}}
	store.records[2].IsDeleted = true

	idx := NewIndex(store)
	if err := idx.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	ids := idx.IDsByTopic(context.Background(), "ai")
	if len(ids) != 2 {
		t.Fatalf("expected 2 matches for %q, got %v", "ai", ids)
	}

	// Deleted records never appear in the index
	for _, id := range idx.IDsByTopic(context.Background(), "databases") {
		if id == "p3" {
			t.Fatal("deleted record leaked into the topic index")
		}
	}
}

func TestIndexCaseInsensitiveSubstring(t *testing.T) {
	store := &fakeCatalog{records: []*models.Presentation{
		testPresentation("p1", "AI"),
	}}

	idx := NewIndex(store)
	if err := idx.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, query := range []string{"AI", "ai", "a", "I"} {
		if ids := idx.IDsByTopic(context.Background(), query); len(ids) != 1 || ids[0] != "p1" {
			t.Fatalf("query %q: got %v, want [p1]", query, ids)
		}
	}
}

func TestIndexStoreFallback(t *testing.T) {
	store := &fakeCatalog{records: []*models.Presentation{
		testPresentation("p1", "Robotics"),
	}}

	// Index never rebuilt: lookups must fall back to the store
	idx := NewIndex(store)

	ids := idx.IDsByTopic(context.Background(), "robot")
	if len(ids) != 1 || ids[0] != "p1" {
		t.Fatalf("store fallback failed: %v", ids)
	}
	if store.findByTopicHit != 1 {
		t.Fatalf("expected exactly one store fallback, got %d", store.findByTopicHit)
	}
}

func TestIndexAddUpdateRemove(t *testing.T) {
	store := &fakeCatalog{}
	idx := NewIndex(store)

	p := testPresentation("p1", "Science")
	idx.AddPresentation(p)

	if ids := idx.IDsByTopic(context.Background(), "science"); len(ids) != 1 {
		t.Fatalf("add not reflected: %v", ids)
	}

	p.Topics = []string{"History"}
	idx.ApplyUpdate(p)

	if topics := idx.Topics(); len(topics) != 1 || topics[0] != "History" {
		t.Fatalf("update not reflected: %v", topics)
	}

	idx.RemovePresentation("p1")
	if topics := idx.Topics(); len(topics) != 0 {
		t.Fatalf("remove not reflected: %v", topics)
	}
}

func TestIndexSeenTracking(t *testing.T) {
	store := &fakeCatalog{records: []*models.Presentation{
		testPresentation("p1", "Go"),
		testPresentation("p2", "Go"),
	}}

	idx := NewIndex(store)
	if err := idx.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	if idx.HasSeen("u1", "p1") {
		t.Fatal("fresh user should have seen nothing")
	}

	idx.MarkSeen("u1", "p1")

	if !idx.HasSeen("u1", "p1") {
		t.Fatal("seen mark lost")
	}
	if idx.HasSeen("u2", "p1") {
		t.Fatal("seen tracking leaked across users")
	}

	unseen := idx.UnseenByTopic(context.Background(), "u1", "go")
	if len(unseen) != 1 || unseen[0] != "p2" {
		t.Fatalf("unseen = %v, want [p2]", unseen)
	}
}

func TestIndexSeenSurvivesRebuild(t *testing.T) {
	store := &fakeCatalog{records: []*models.Presentation{testPresentation("p1", "Go")}}

	idx := NewIndex(store)
	idx.MarkSeen("u1", "p1")

	if err := idx.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !idx.HasSeen("u1", "p1") {
		t.Fatal("rebuild must not clear seen tracking")
	}
}
