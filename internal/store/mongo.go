package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rukhsanaashhad/TodoSecure---Secure-TODO-Manager/internal/models"
)

// ActivityStore appends and reads per-user activity events in MongoDB.
type ActivityStore struct {
	col *mongo.Collection
}

func NewActivityStore(db *mongo.Database) *ActivityStore {
	return &ActivityStore{col: db.Collection("activity")}
}

// Record appends one event to the feed.
func (s *ActivityStore) Record(ctx context.Context, a *models.Activity) error {
	a.CreatedAt = time.Now().UTC()
	if _, err := s.col.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent events, newest first.
func (s *ActivityStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.Activity
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
