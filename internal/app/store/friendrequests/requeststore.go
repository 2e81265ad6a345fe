// internal/app/store/friendrequests/requeststore.go
package requeststore

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
	// ErrNotFound is returned when no request matches.
	ErrNotFound = errors.New("friend request not found")
	// ErrDuplicateRequest is returned when a pending request already exists
	// between the same two users.
	ErrDuplicateRequest = errors.New("a friend request is already pending")
	// ErrNotPending is returned when a transition is attempted on a request
	// that has already left the pending state.
	ErrNotPending = errors.New("friend request is no longer pending")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("friend_requests")}
}

// Create inserts a pending request. Unique partial indexes on the ordered
// pair and on pair_key reject a second pending request between the same two
// users in either direction.
func (s *Store) Create(ctx context.Context, fr models.FriendRequest) (models.FriendRequest, error) {
	now := time.Now().UTC()
	fr.ID = primitive.NewObjectID()
	fr.Status = models.RequestPending
	fr.PairKey = models.RequestPairKey(fr.FromUserID, fr.ToUserID)
	fr.CreatedAt = now
	fr.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, fr); err != nil {
		if wafflemongo.IsDup(err) {
			return models.FriendRequest{}, ErrDuplicateRequest
		}
		return models.FriendRequest{}, err
	}
	return fr, nil
}

// GetByID loads a request by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	var fr models.FriendRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&fr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fr, nil
}

// PendingExists reports whether from has a pending request to to.
func (s *Store) PendingExists(ctx context.Context, from, to primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"from_user_id": from,
		"to_user_id":   to,
		"status":       models.RequestPending,
	}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, err
}

// Transition moves a pending request to status. Only the request's party in
// partyField ("from_user_id" or "to_user_id") may do so; the caller checks
// that beforehand, and the filter repeats it so the update is atomic.
// Returns ErrNotPending if the request was no longer pending.
func (s *Store) Transition(ctx context.Context, id primitive.ObjectID, partyField string, party primitive.ObjectID, status string) (*models.FriendRequest, error) {
	var fr models.FriendRequest
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, partyField: party, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&fr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotPending
		}
		return nil, err
	}
	return &fr, nil
}

// Revert puts a request back to pending if it is still in status.
func (s *Store) Revert(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": status},
		bson.M{"$set": bson.M{"status": models.RequestPending, "updated_at": time.Now().UTC()}})
	return err
}

func (s *Store) listPending(ctx context.Context, field string, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{field: userID, "status": models.RequestPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.FriendRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Incoming returns pending requests addressed to userID, newest first.
func (s *Store) Incoming(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	return s.listPending(ctx, "to_user_id", userID)
}

// Outgoing returns pending requests sent by userID, newest first.
func (s *Store) Outgoing(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequest, error) {
	return s.listPending(ctx, "from_user_id", userID)
}

// CancelPendingInvolving cancels every pending request sent by or to userID
// and returns the ids it changed.
func (s *Store) CancelPendingInvolving(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"status": models.RequestPending,
		"$or":    bson.A{bson.M{"from_user_id": userID}, bson.M{"to_user_id": userID}},
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	_, err = s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": models.RequestCancelled, "updated_at": time.Now().UTC()}})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RevertMany puts the given requests back to pending when they are still in status.
func (s *Store) RevertMany(ctx context.Context, ids []primitive.ObjectID, status string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": status},
		bson.M{"$set": bson.M{"status": models.RequestPending, "updated_at": time.Now().UTC()}})
	return err
}

// PendingPeers returns the users userID has pending requests to (sent) and
// from (received).
func (s *Store) PendingPeers(ctx context.Context, userID primitive.ObjectID) (sent, received map[primitive.ObjectID]bool, err error) {
	sent = map[primitive.ObjectID]bool{}
	received = map[primitive.ObjectID]bool{}

	filter := bson.M{
		"status": models.RequestPending,
		"$or":    bson.A{bson.M{"from_user_id": userID}, bson.M{"to_user_id": userID}},
	}
	proj := options.Find().SetProjection(bson.M{"from_user_id": 1, "to_user_id": 1})
	cur, err := s.c.Find(ctx, filter, proj)
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var fr models.FriendRequest
		if err := cur.Decode(&fr); err != nil {
			return nil, nil, err
		}
		if fr.FromUserID == userID {
			sent[fr.ToUserID] = true
		} else {
			received[fr.FromUserID] = true
		}
	}
	return sent, received, cur.Err()
}
