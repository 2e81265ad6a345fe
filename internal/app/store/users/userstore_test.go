package userstore_test

import (
	"context"
	"errors"
	"testing"

	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/abhi-jithb/PreshnamSolver/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:  "  Alice   Smith ",
		Email: "Alice@Example.COM",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lowercased", created.Email)
	}
	if created.Name != "Alice Smith" {
		t.Errorf("Name = %q, want collapsed whitespace", created.Name)
	}
	if created.NameCI != "alice smith" {
		t.Errorf("NameCI = %q, want %q", created.NameCI, "alice smith")
	}
	if created.Role != models.RoleUser {
		t.Errorf("Role = %q, want %q", created.Role, models.RoleUser)
	}
	if created.Status != models.StatusActive {
		t.Errorf("Status = %q, want %q", created.Status, models.StatusActive)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{Email: "x@example.com", Role: "superadmin"})
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestStore_Create_Duplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Email: "dup@example.com", Username: "dupe"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	tests := []struct {
		name string
		user models.User
		want error
	}{
		{"same email different case", models.User{Email: "DUP@example.com"}, userstore.ErrDuplicateEmail},
		{"same username", models.User{Email: "other@example.com", Username: "Dupe"}, userstore.ErrDuplicateUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.user)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Bob", "bob")

	got, err := store.GetByEmail(ctx, "  BOB@test.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got user %s, want %s", got.ID.Hex(), u.ID.Hex())
	}

	if _, err := store.GetByEmail(ctx, "nobody@test.com"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("missing email: got %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUserWith(ctx, models.User{Email: "new@test.com"})

	err := store.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{
		Name:    "Carla Diaz",
		Phone:   "+1 (555) 010-2000",
		Address: " 12 Main Street ",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.ProfileComplete {
		t.Error("expected profile_complete to be set")
	}
	if got.NameCI != "carla diaz" {
		t.Errorf("NameCI = %q", got.NameCI)
	}
	if got.Phone != "+15550102000" {
		t.Errorf("Phone = %q, want normalized digits", got.Phone)
	}
	if got.Address != "12 Main Street" {
		t.Errorf("Address = %q", got.Address)
	}

	if err := store.UpdateProfile(ctx, primitive.NewObjectID(), userstore.ProfileUpdate{Name: "X"}); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestStore_InitName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	blank := fixtures.CreateUserWith(ctx, models.User{Email: "blank@test.com"})
	named := fixtures.CreateUser(ctx, "Dana", "dana")

	changed, err := store.InitName(ctx, blank.ID, "blank")
	if err != nil || !changed {
		t.Fatalf("InitName on blank user: changed=%v err=%v", changed, err)
	}
	changed, err = store.InitName(ctx, named.ID, "someone else")
	if err != nil || changed {
		t.Fatalf("InitName on named user: changed=%v err=%v", changed, err)
	}
	got, _ := store.GetByID(ctx, named.ID)
	if got.Name != "Dana" {
		t.Errorf("existing name overwritten: %q", got.Name)
	}
}

func TestStore_SetUsername_Taken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Eve", "eve")
	other := fixtures.CreateUser(ctx, "Frank", "frank")

	if err := store.SetUsername(ctx, other.ID, "eve"); !errors.Is(err, userstore.ErrDuplicateUsername) {
		t.Errorf("got %v, want ErrDuplicateUsername", err)
	}
	if err := store.SetUsername(ctx, other.ID, "@Frankie"); err != nil {
		t.Fatalf("SetUsername failed: %v", err)
	}
	got, _ := store.GetByID(ctx, other.ID)
	if got.Username != "frankie" {
		t.Errorf("Username = %q, want %q", got.Username, "frankie")
	}
}

func TestStore_SetRoleAndStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Gus", "gus")

	if err := store.SetRole(ctx, u.ID, "ADMIN"); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if err := store.SetStatus(ctx, u.ID, "suspended"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := store.SetStatus(ctx, u.ID, "disabled"); err == nil {
		t.Error("expected error for unknown status")
	}

	got, _ := store.GetByID(ctx, u.ID)
	if got.Role != models.RoleAdmin || got.Status != models.StatusSuspended {
		t.Errorf("role/status = %q/%q", got.Role, got.Status)
	}
}

func TestStore_PrefixMatches(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := fixtures.CreateUser(ctx, "Abe Me", "abme")
	fixtures.CreateUser(ctx, "Alice", "abby")
	fixtures.CreateUser(ctx, "Bob", "abbot")
	fixtures.CreateUser(ctx, "Carl", "carlos")
	fixtures.CreateUserWith(ctx, models.User{Name: "Sus", Username: "absent", Status: models.StatusSuspended})

	got, err := store.PrefixMatches(ctx, "username", "ab", me.ID, 20)
	if err != nil {
		t.Fatalf("PrefixMatches failed: %v", err)
	}
	var names []string
	for _, u := range got {
		names = append(names, u.Username)
		if u.PasswordHash != "" {
			t.Error("password hash must not be returned")
		}
	}
	if len(names) != 2 || names[0] != "abbot" || names[1] != "abby" {
		t.Errorf("got %v, want [abbot abby]", names)
	}

	none, err := store.PrefixMatches(ctx, "username", "", me.ID, 20)
	if err != nil || len(none) != 0 {
		t.Errorf("empty prefix: got %v, %v", none, err)
	}
}

func TestStore_List_Paging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		fixtures.CreateUserWith(ctx, models.User{Name: "User " + string(rune('A'+i%26)) + string(rune('a'+i/26))})
	}

	first, err := store.List(ctx, "", "", "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(first.Users) != 50 || !first.HasNext || first.HasPrev {
		t.Fatalf("first page: len=%d hasNext=%v hasPrev=%v", len(first.Users), first.HasNext, first.HasPrev)
	}

	second, err := store.List(ctx, "", "", first.Next)
	if err != nil {
		t.Fatalf("List page 2 failed: %v", err)
	}
	if len(second.Users) != 5 || second.HasNext || !second.HasPrev {
		t.Fatalf("second page: len=%d hasNext=%v hasPrev=%v", len(second.Users), second.HasNext, second.HasPrev)
	}
	if second.Users[0].NameCI <= first.Users[49].NameCI {
		t.Error("second page must continue after the first")
	}

	filtered, err := store.List(ctx, "user a", "", "")
	if err != nil {
		t.Fatalf("filtered List failed: %v", err)
	}
	for _, u := range filtered.Users {
		if u.NameCI[:6] != "user a" {
			t.Errorf("unexpected match %q", u.Name)
		}
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := userstore.NewFetcher(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	active := fixtures.CreateUser(ctx, "Hana", "hana")
	suspended := fixtures.CreateUserWith(ctx, models.User{Name: "Ivan", Status: models.StatusSuspended})

	su := fetcher.FetchUser(ctx, active.ID.Hex())
	if su == nil {
		t.Fatal("expected active user")
	}
	if su.Username != "hana" || su.Name != "Hana" || !su.ProfileComplete {
		t.Errorf("unexpected session user %+v", su)
	}

	if fetcher.FetchUser(ctx, suspended.ID.Hex()) != nil {
		t.Error("suspended user must not be fetched")
	}
	if fetcher.FetchUser(ctx, primitive.NewObjectID().Hex()) != nil {
		t.Error("missing user must return nil")
	}
	if fetcher.FetchUser(ctx, "not-an-id") != nil {
		t.Error("bad id must return nil")
	}
}
