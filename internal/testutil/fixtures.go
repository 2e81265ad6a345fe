package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active, profile-complete user. The email is
// derived from username.
func (f *Fixtures) CreateUser(ctx context.Context, name, username string) models.User {
	f.t.Helper()
	return f.CreateUserWith(ctx, models.User{
		Name:            name,
		Username:        username,
		Email:           username + "@test.com",
		ProfileComplete: true,
	})
}

// CreateAdmin creates an active admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, username string) models.User {
	f.t.Helper()
	return f.CreateUserWith(ctx, models.User{
		Name:            name,
		Username:        username,
		Email:           username + "@test.com",
		Role:            models.RoleAdmin,
		ProfileComplete: true,
	})
}

// CreateUserWith inserts u after filling in defaults for unset fields.
func (f *Fixtures) CreateUserWith(ctx context.Context, u models.User) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Email == "" {
		u.Email = u.ID.Hex() + "@test.com"
	}
	u.Email = strings.ToLower(u.Email)
	u.NameCI = text.Fold(u.Name)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateFriendRequest creates a pending request from -> to.
func (f *Fixtures) CreateFriendRequest(ctx context.Context, from, to models.User) models.FriendRequest {
	f.t.Helper()

	now := time.Now().UTC()
	fr := models.FriendRequest{
		ID:           primitive.NewObjectID(),
		FromUserID:   from.ID,
		FromName:     from.DisplayName(),
		FromUsername: from.Username,
		ToUserID:     to.ID,
		ToName:       to.DisplayName(),
		ToUsername:   to.Username,
		Status:       models.RequestPending,
		PairKey:      models.RequestPairKey(from.ID, to.ID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("friend_requests").InsertOne(ctx, fr); err != nil {
		f.t.Fatalf("failed to create test friend request: %v", err)
	}
	return fr
}

// CreateFriendship makes a and b friends (both directional rows).
func (f *Fixtures) CreateFriendship(ctx context.Context, a, b models.User) {
	f.t.Helper()

	now := time.Now().UTC()
	rows := []interface{}{
		models.Friendship{ID: primitive.NewObjectID(), UserID: a.ID, FriendID: b.ID,
			FriendName: b.DisplayName(), FriendUsername: b.Username, Status: models.RequestAccepted, CreatedAt: now},
		models.Friendship{ID: primitive.NewObjectID(), UserID: b.ID, FriendID: a.ID,
			FriendName: a.DisplayName(), FriendUsername: a.Username, Status: models.RequestAccepted, CreatedAt: now},
	}
	if _, err := f.db.Collection("friends").InsertMany(ctx, rows); err != nil {
		f.t.Fatalf("failed to create test friendship: %v", err)
	}
}

// CreateAlert creates an active SOS from owner to recipients.
func (f *Fixtures) CreateAlert(ctx context.Context, owner models.User, recipients ...models.User) models.Alert {
	f.t.Helper()

	refs := make([]models.FriendRef, 0, len(recipients))
	for _, r := range recipients {
		refs = append(refs, models.FriendRef{ID: r.ID, Name: r.DisplayName(), Username: r.Username})
	}
	a := models.Alert{
		ID:           primitive.NewObjectID(),
		UserID:       owner.ID,
		UserName:     owner.DisplayName(),
		UserUsername: owner.Username,
		Type:         models.AlertTypeSOS,
		Status:       models.AlertActive,
		Location:     models.DefaultAlertLocation,
		Friends:      refs,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("alerts").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test alert: %v", err)
	}
	return a
}

// CreateFeedback stores a feedback message from u.
func (f *Fixtures) CreateFeedback(ctx context.Context, u models.User, msg string) models.Feedback {
	f.t.Helper()

	fb := models.Feedback{
		ID:        primitive.NewObjectID(),
		UserID:    u.ID,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("feedback").InsertOne(ctx, fb); err != nil {
		f.t.Fatalf("failed to create test feedback: %v", err)
	}
	return fb
}
