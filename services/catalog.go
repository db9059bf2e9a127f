package services

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slide-deck-platform/models"
)

// CatalogStore persists presentation records. It is the durability boundary:
// a conversion result counts as committed only after Save and an independent
// Verify read-back both succeed.
type CatalogStore struct {
	collection *mongo.Collection
}

func NewCatalogStore(db *mongo.Database) *CatalogStore {
	return &CatalogStore{
		collection: db.Collection("presentations"),
	}
}

// Save inserts or replaces the record by id. Calling it twice with the same
// id updates in place, it never duplicates.
func (s *CatalogStore) Save(ctx context.Context, p *models.Presentation) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p, opts)
	if err != nil {
		return fmt.Errorf("failed to save presentation %s: %w", p.ID, err)
	}
	return nil
}

// Verify performs an independent read-back confirming the record is durable.
// Callers must not acknowledge a conversion until this returns true.
func (s *CatalogStore) Verify(ctx context.Context, id string) bool {
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Err()
	return err == nil
}

// Find returns the record by id, excluding soft-deleted records
func (s *CatalogStore) Find(ctx context.Context, id string) (*models.Presentation, error) {
	var p models.Presentation
	err := s.collection.FindOne(ctx, bson.M{
		"_id":        id,
		"is_deleted": bson.M{"$ne": true},
	}).Decode(&p)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// FindByTopic returns non-deleted records whose topics match the pattern as
// a case-insensitive substring
func (s *CatalogStore) FindByTopic(ctx context.Context, pattern string) ([]*models.Presentation, error) {
	filter := bson.M{
		"is_deleted": bson.M{"$ne": true},
		"topics": bson.M{"$regex": primitive.Regex{
			Pattern: regexp.QuoteMeta(pattern),
			Options: "i",
		}},
	}

	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "converted", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*models.Presentation
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// List returns all non-deleted records, newest first
func (s *CatalogStore) List(ctx context.Context) ([]*models.Presentation, error) {
	filter := bson.M{"is_deleted": bson.M{"$ne": true}}

	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "converted", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*models.Presentation
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// Update applies a partial metadata update; returns false when no live
// record matches the id. Concurrent updates to the same id are
// last-write-wins, there is no per-id serialization.
func (s *CatalogStore) Update(ctx context.Context, id string, update *models.UpdateRequest) (bool, error) {
	set := bson.M{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Summary != nil {
		set["summary"] = *update.Summary
	}
	if update.Author != nil {
		set["author"] = *update.Author
	}
	if update.Topics != nil {
		set["topics"] = *update.Topics
	}
	if len(set) == 0 {
		// Nothing to change; treat an existing record as a successful no-op
		p, err := s.Find(ctx, id)
		return p != nil, err
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_deleted": bson.M{"$ne": true}},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}

	return result.MatchedCount > 0, nil
}

// SoftDelete flips the deletion flag; the record stays in the collection.
// Returns false when the id is unknown or already deleted.
func (s *CatalogStore) SoftDelete(ctx context.Context, id string) (bool, error) {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_deleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"is_deleted": true}},
	)
	if err != nil {
		return false, err
	}

	return result.MatchedCount > 0, nil
}

// IncrementView bumps the monotonic view counter
func (s *CatalogStore) IncrementView(ctx context.Context, id string) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_deleted": bson.M{"$ne": true}},
		bson.M{"$inc": bson.M{"view_count": 1}},
	)
	return err
}
