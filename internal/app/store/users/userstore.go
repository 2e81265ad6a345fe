package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/paging"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateUsername is returned when the username is taken.
	ErrDuplicateUsername = errors.New("that username is already taken")

	errBadRole   = errors.New(`role must be "user"|"admin"`)
	errBadStatus = errors.New(`status must be "active"|"suspended"`)
)

// dupErr maps a duplicate-key error to the index that rejected it.
func dupErr(err error) error {
	if strings.Contains(err.Error(), "uniq_users_username") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByIDs loads the users with the given ids, keyed by id.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Username = normalize.Username(u.Username)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}

	if u.Role != models.RoleUser && u.Role != models.RoleAdmin {
		return models.User{}, errBadRole
	}
	if u.Status != models.StatusActive && u.Status != models.StatusSuspended {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, dupErr(err)
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the user-editable profile fields.
type ProfileUpdate struct {
	Name    string
	Phone   string
	Address string
}

func (s *Store) updateByID(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return dupErr(err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile saves the profile fields and marks the profile complete.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	name := normalize.Name(upd.Name)
	return s.updateByID(ctx, id, bson.M{
		"name":             name,
		"name_ci":          text.Fold(name),
		"phone":            normalize.Phone(upd.Phone),
		"address":          strings.TrimSpace(upd.Address),
		"profile_complete": true,
	})
}

// AdminUpdate edits profile fields without touching profile_complete.
func (s *Store) AdminUpdate(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	name := normalize.Name(upd.Name)
	return s.updateByID(ctx, id, bson.M{
		"name":    name,
		"name_ci": text.Fold(name),
		"phone":   normalize.Phone(upd.Phone),
		"address": strings.TrimSpace(upd.Address),
	})
}

// InitName sets the display name only when it is still empty.
// Returns true when the document was changed.
func (s *Store) InitName(ctx context.Context, id primitive.ObjectID, name string) (bool, error) {
	name = normalize.Name(name)
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "$or": bson.A{bson.M{"name": ""}, bson.M{"name": bson.M{"$exists": false}}}},
		bson.M{"$set": bson.M{"name": name, "name_ci": text.Fold(name), "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// SetUsername changes the username. Returns ErrDuplicateUsername if taken.
func (s *Store) SetUsername(ctx context.Context, id primitive.ObjectID, username string) error {
	return s.updateByID(ctx, id, bson.M{"username": normalize.Username(username)})
}

// SetPasswordHash replaces the stored bcrypt hash.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateByID(ctx, id, bson.M{"password_hash": hash})
}

// SetRole changes the user's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if role != models.RoleUser && role != models.RoleAdmin {
		return errBadRole
	}
	return s.updateByID(ctx, id, bson.M{"role": role})
}

// SetStatus changes the account status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	status = normalize.Status(status)
	if status != models.StatusActive && status != models.StatusSuspended {
		return errBadStatus
	}
	return s.updateByID(ctx, id, bson.M{"status": status})
}

// Delete removes a user document. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Restore re-inserts a previously deleted user document.
func (s *Store) Restore(ctx context.Context, u models.User) error {
	_, err := s.c.InsertOne(ctx, u)
	return err
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// PrefixMatches returns up to limit users whose field starts with the
// already-folded prefix, excluding one user. field is "username" or "name_ci".
func (s *Store) PrefixMatches(ctx context.Context, field, prefix string, exclude primitive.ObjectID, limit int64) ([]models.User, error) {
	if prefix == "" {
		return nil, nil
	}
	filter := bson.M{
		field:    bson.M{"$gte": prefix, "$lt": prefix + text.High},
		"_id":    bson.M{"$ne": exclude},
		"status": models.StatusActive,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetProjection(bson.M{"password_hash": 0})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPage is one keyset page of the admin user list.
type ListPage struct {
	Users   []models.User
	Prev    string
	Next    string
	HasPrev bool
	HasNext bool
}

// List pages through users ordered by folded name. q filters by email or
// name prefix.
func (s *Store) List(ctx context.Context, q, before, after string) (ListPage, error) {
	filter := bson.M{}
	if q = strings.TrimSpace(q); q != "" {
		if strings.Contains(q, "@") {
			e := normalize.Email(q)
			filter["email"] = bson.M{"$gte": e, "$lt": e + text.High}
		} else {
			f := text.Fold(q)
			filter["name_ci"] = bson.M{"$gte": f, "$lt": f + text.High}
		}
	}

	cfg := paging.ConfigureKeyset(before, after)
	if win := cfg.KeysetWindow("name_ci"); win != nil {
		filter = bson.M{"$and": bson.A{filter, win}}
	}
	find := options.Find().SetProjection(bson.M{"password_hash": 0})
	cfg.ApplyToFind(find, "name_ci")

	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return ListPage{}, err
	}
	defer cur.Close(ctx)

	var rows []models.User
	if err := cur.All(ctx, &rows); err != nil {
		return ListPage{}, err
	}
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	res := paging.TrimPage(&rows, before, after)
	prev, next := paging.BuildCursors(rows,
		func(u models.User) string { return u.NameCI },
		func(u models.User) primitive.ObjectID { return u.ID })

	return ListPage{Users: rows, Prev: prev, Next: next, HasPrev: res.HasPrev, HasNext: res.HasNext}, nil
}
