// internal/app/store/friendships/friendstore.go
package friendstore

import (
	"context"
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Party is one side of a friendship with the display fields copied onto the
// other side's row.
type Party struct {
	ID       primitive.ObjectID
	Name     string
	Username string
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("friends")}
}

// UpsertPair makes a and b friends by upserting both directional rows.
// Existing rows are left as they are. Returns the ids of rows this call
// inserted so a caller can undo them.
func (s *Store) UpsertPair(ctx context.Context, a, b Party) ([]primitive.ObjectID, error) {
	now := time.Now().UTC()
	var created []primitive.ObjectID

	for _, dir := range [][2]Party{{a, b}, {b, a}} {
		self, other := dir[0], dir[1]
		res, err := s.c.UpdateOne(ctx,
			bson.M{"user_id": self.ID, "friend_id": other.ID},
			bson.M{"$setOnInsert": bson.M{
				"_id":             primitive.NewObjectID(),
				"user_id":         self.ID,
				"friend_id":       other.ID,
				"friend_name":     other.Name,
				"friend_username": other.Username,
				"status":          models.RequestAccepted,
				"created_at":      now,
			}},
			options.Update().SetUpsert(true))
		if err != nil {
			return created, err
		}
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			created = append(created, oid)
		}
	}
	return created, nil
}

// IsFriend reports whether friendID is in userID's friend list.
func (s *Store) IsFriend(ctx context.Context, userID, friendID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"user_id": userID, "friend_id": friendID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns userID's friends ordered by display name.
func (s *Store) List(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	opts := options.Find().SetSort(bson.D{{Key: "friend_name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Friendship{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FriendIDs returns the ids of userID's friends.
func (s *Store) FriendIDs(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, options.Find().SetProjection(bson.M{"friend_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[primitive.ObjectID]bool{}
	for cur.Next(ctx) {
		var f models.Friendship
		if err := cur.Decode(&f); err != nil {
			return nil, err
		}
		out[f.FriendID] = true
	}
	return out, cur.Err()
}

// Between returns the directional rows linking a and b (zero, one or two).
func (s *Store) Between(ctx context.Context, a, b primitive.ObjectID) ([]models.Friendship, error) {
	cur, err := s.c.Find(ctx, pairFilter(a, b))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Friendship
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePair removes both directional rows and returns how many were deleted.
func (s *Store) DeletePair(ctx context.Context, a, b primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, pairFilter(a, b))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Involving returns every row where userID is on either side.
func (s *Store) Involving(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	cur, err := s.c.Find(ctx, involvingFilter(userID))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Friendship
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteInvolving removes every row where userID is on either side.
func (s *Store) DeleteInvolving(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, involvingFilter(userID))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByIDs removes rows by id.
func (s *Store) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// Restore re-inserts rows removed earlier. Rows already present are skipped.
func (s *Store) Restore(ctx context.Context, rows []models.Friendship) error {
	for _, f := range rows {
		_, err := s.c.UpdateOne(ctx,
			bson.M{"user_id": f.UserID, "friend_id": f.FriendID},
			bson.M{"$setOnInsert": f},
			options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
	}
	return nil
}

func pairFilter(a, b primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"user_id": a, "friend_id": b},
		bson.M{"user_id": b, "friend_id": a},
	}}
}

func involvingFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{bson.M{"user_id": userID}, bson.M{"friend_id": userID}}}
}
