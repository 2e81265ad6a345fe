// internal/app/store/feedback/feedbackstore.go
package feedbackstore

import (
	"context"
	"errors"
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no feedback matches.
var ErrNotFound = errors.New("feedback not found")

// ListLimit caps the admin feedback listing.
const ListLimit = 200

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("feedback")}
}

// Create appends a feedback message. msg must already be sanitized.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, msg string) (models.Feedback, error) {
	fb := models.Feedback{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, fb); err != nil {
		return models.Feedback{}, err
	}
	return fb, nil
}

// List returns the newest feedback first.
func (s *Store) List(ctx context.Context) ([]models.Feedback, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(ListLimit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Feedback{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes one feedback entry.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of feedback entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
