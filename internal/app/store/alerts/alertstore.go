// internal/app/store/alerts/alertstore.go
package alertstore

import (
	"context"
	"errors"
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no alert matches.
	ErrNotFound = errors.New("alert not found")
	// ErrAlertAlreadyActive is returned when the owner already has an active alert.
	ErrAlertAlreadyActive = errors.New("you already have an active alert")
)

// HistoryLimit caps the owner's alert history listing.
const HistoryLimit = 100

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("alerts")}
}

// Create inserts an active alert. The unique partial index on
// (user_id, status=active) rejects a second active alert for the owner.
func (s *Store) Create(ctx context.Context, a models.Alert) (models.Alert, error) {
	a.ID = primitive.NewObjectID()
	a.Status = models.AlertActive
	if a.Type == "" {
		a.Type = models.AlertTypeSOS
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.ResolvedAt = nil
	a.ResolvedBy = nil

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Alert{}, ErrAlertAlreadyActive
		}
		return models.Alert{}, err
	}
	return a, nil
}

// GetByID loads an alert by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Alert, error) {
	var a models.Alert
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ActiveOwnedBy returns the owner's active alert, or ErrNotFound.
func (s *Store) ActiveOwnedBy(ctx context.Context, ownerID primitive.ObjectID) (*models.Alert, error) {
	var a models.Alert
	err := s.c.FindOne(ctx, bson.M{"user_id": ownerID, "status": models.AlertActive}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ActiveVisibleTo returns active alerts whose recipient snapshot contains
// userID, plus userID's own active alert. Newest first.
func (s *Store) ActiveVisibleTo(ctx context.Context, userID primitive.ObjectID) ([]models.Alert, error) {
	filter := bson.M{
		"status": models.AlertActive,
		"$or":    bson.A{bson.M{"friends.id": userID}, bson.M{"user_id": userID}},
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
}

// History returns the owner's alerts, newest first.
func (s *Store) History(ctx context.Context, ownerID primitive.ObjectID) ([]models.Alert, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(HistoryLimit)
	return s.find(ctx, bson.M{"user_id": ownerID}, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Alert, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Alert{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve marks an active alert resolved. When the alert is already
// resolved it is returned unchanged with changed=false.
func (s *Store) Resolve(ctx context.Context, id, by primitive.ObjectID) (a *models.Alert, changed bool, err error) {
	now := time.Now().UTC()
	var out models.Alert
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.AlertActive},
		bson.M{"$set": bson.M{"status": models.AlertResolved, "resolved_at": now, "resolved_by": by}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == nil {
		return &out, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Reopen reverts a resolve made by Resolve.
func (s *Store) Reopen(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.AlertResolved},
		bson.M{
			"$set":   bson.M{"status": models.AlertActive},
			"$unset": bson.M{"resolved_at": "", "resolved_by": ""},
		})
	return err
}

// CountActive returns the number of active alerts.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.AlertActive})
}
