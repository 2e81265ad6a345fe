package profile_test

import (
	"net/http"
	"strings"
	"testing"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/features/profile"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/abhi-jithb/PreshnamSolver/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*profile.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)
	return profile.NewHandler(db, errLog, logger), db
}

func TestServeProfile_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewRequest(http.MethodGet, "/profile"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeProfile_InitializesName(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := testutil.NewFixtures(t, db).CreateUserWith(ctx, models.User{Email: "quiet.one@test.com"})

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", testutil.AsTestUser(u)))
	rec.AssertStatus(t, http.StatusOK)

	var got models.User
	rec.DecodeJSON(t, &got)
	if got.Name != "quiet.one" {
		t.Errorf("Name = %q, want email local part", got.Name)
	}
	if got.ProfileComplete {
		t.Error("reading the profile must not complete it")
	}
	rec.AssertContains(t, `"email":"quiet.one@test.com"`)
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("password hash must not be serialized")
	}
}

func TestHandleUpdateProfile(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUserWith(ctx, models.User{Email: "new@test.com", Name: "new"})
	other := fx.CreateUser(ctx, "Other", "other")
	fr := fx.CreateFriendRequest(ctx, u, other)
	user := testutil.AsTestUser(u)

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{"blank name", map[string]string{"name": "  ", "phone": "555-0100-22", "address": "12 Main St"}, http.StatusUnprocessableEntity},
		{"long name", map[string]string{"name": strings.Repeat("n", 81), "phone": "555-0100-22", "address": "12 Main St"}, http.StatusUnprocessableEntity},
		{"bad phone", map[string]string{"name": "Nia", "phone": "call me", "address": "12 Main St"}, http.StatusUnprocessableEntity},
		{"short address", map[string]string{"name": "Nia", "phone": "555-0100-22", "address": "abc"}, http.StatusUnprocessableEntity},
		{"valid", map[string]string{"name": " Nia  Diaz ", "phone": "+1 555-0100-22", "address": "12 Main Street"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPut, "/profile", tt.body), user)
			h.HandleUpdateProfile(rec, req)
			rec.AssertStatus(t, tt.wantStatus)
		})
	}

	got, err := userstore.New(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Nia Diaz" || !got.ProfileComplete || got.Phone != "+1555010022" {
		t.Errorf("stored profile = %+v", got)
	}

	// The earlier request keeps its snapshot.
	var stored models.FriendRequest
	if err := db.Collection("friend_requests").FindOne(ctx, map[string]any{"_id": fr.ID}).Decode(&stored); err != nil {
		t.Fatalf("load request: %v", err)
	}
	if stored.FromName != "new" {
		t.Errorf("snapshot rewritten to %q", stored.FromName)
	}
}

func TestHandleUpdateUsername(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	fx.CreateUser(ctx, "Taken", "taken")
	u := fx.CreateUser(ctx, "Me", "me_me")
	user := testutil.AsTestUser(u)

	tests := []struct {
		name       string
		username   string
		wantStatus int
	}{
		{"empty", "", http.StatusUnprocessableEntity},
		{"too short", "ab", http.StatusUnprocessableEntity},
		{"bad chars", "hey there", http.StatusUnprocessableEntity},
		{"taken", "Taken", http.StatusConflict},
		{"ok", "@Fresh.Name", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPut, "/profile/username", map[string]string{"username": tt.username}), user)
			h.HandleUpdateUsername(rec, req)
			rec.AssertStatus(t, tt.wantStatus)
		})
	}

	got, _ := userstore.New(db).GetByID(ctx, u.ID)
	if got.Username != "fresh.name" {
		t.Errorf("Username = %q", got.Username)
	}
}

func TestHandleChangePassword(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := authutil.HashPassword("old-pass-1")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	u := testutil.NewFixtures(t, db).CreateUserWith(ctx, models.User{Email: "pw@test.com", Name: "Pw", PasswordHash: hash})
	user := testutil.AsTestUser(u)

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{"wrong current", map[string]string{"current_password": "nope-nope-1", "new_password": "new-pass-2", "confirm_password": "new-pass-2"}, http.StatusUnprocessableEntity},
		{"weak new", map[string]string{"current_password": "old-pass-1", "new_password": "short", "confirm_password": "short"}, http.StatusUnprocessableEntity},
		{"ok", map[string]string{"current_password": "old-pass-1", "new_password": "new-pass-2", "confirm_password": "new-pass-2"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/profile/password", tt.body), user)
			h.HandleChangePassword(rec, req)
			rec.AssertStatus(t, tt.wantStatus)
		})
	}

	got, _ := userstore.New(db).GetByID(ctx, u.ID)
	if !authutil.CheckPassword(got.PasswordHash, "new-pass-2") {
		t.Error("new password was not stored")
	}
}
