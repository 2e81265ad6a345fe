package requeststore_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	requeststore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/friendrequests"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/abhi-jithb/PreshnamSolver/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRequest(from, to models.User) models.FriendRequest {
	return models.FriendRequest{
		FromUserID: from.ID, FromName: from.Name, FromUsername: from.Username,
		ToUserID: to.ID, ToName: to.Name, ToUsername: to.Username,
	}
}

func TestStore_Create_ConcurrentDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := requeststore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "Ann", "ann")
	b := fixtures.CreateUser(ctx, "Ben", "ben")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Create(ctx, newRequest(a, b))
		}(i)
	}
	wg.Wait()

	ok, dup := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, requeststore.ErrDuplicateRequest):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != n-1 {
		t.Errorf("ok=%d dup=%d, want exactly one success", ok, dup)
	}

	count, err := db.Collection("friend_requests").CountDocuments(ctx, bson.M{"status": models.RequestPending})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("pending count = %d, want 1", count)
	}
}

func TestStore_Transition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := requeststore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "Ann", "ann")
	b := fixtures.CreateUser(ctx, "Ben", "ben")
	fr := fixtures.CreateFriendRequest(ctx, a, b)

	// Wrong party: the filter does not match.
	if _, err := store.Transition(ctx, fr.ID, "to_user_id", a.ID, models.RequestAccepted); !errors.Is(err, requeststore.ErrNotPending) {
		t.Errorf("wrong party: got %v, want ErrNotPending", err)
	}

	got, err := store.Transition(ctx, fr.ID, "to_user_id", b.ID, models.RequestRejected)
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if got.Status != models.RequestRejected {
		t.Errorf("Status = %q", got.Status)
	}

	// Terminal states have no transitions.
	if _, err := store.Transition(ctx, fr.ID, "to_user_id", b.ID, models.RequestAccepted); !errors.Is(err, requeststore.ErrNotPending) {
		t.Errorf("second transition: got %v, want ErrNotPending", err)
	}

	if err := store.Revert(ctx, fr.ID, models.RequestRejected); err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	reverted, _ := store.GetByID(ctx, fr.ID)
	if reverted.Status != models.RequestPending {
		t.Errorf("after revert: %q, want pending", reverted.Status)
	}

	if _, err := store.Transition(ctx, fr.ID, "from_user_id", a.ID, models.RequestCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	// Terminal requests do not block a fresh one for the same pair.
	if _, err := store.Create(ctx, newRequest(a, b)); err != nil {
		t.Errorf("re-send after cancel failed: %v", err)
	}
}

func TestStore_IncomingOutgoing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := requeststore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "Ann", "ann")
	b := fixtures.CreateUser(ctx, "Ben", "ben")
	c := fixtures.CreateUser(ctx, "Cat", "cat")
	d := fixtures.CreateUser(ctx, "Dov", "dov")
	fixtures.CreateFriendRequest(ctx, b, a)
	fixtures.CreateFriendRequest(ctx, c, a)
	fixtures.CreateFriendRequest(ctx, a, d)

	in, err := store.Incoming(ctx, a.ID)
	if err != nil {
		t.Fatalf("Incoming failed: %v", err)
	}
	if len(in) != 2 {
		t.Errorf("incoming = %d, want 2", len(in))
	}
	out, err := store.Outgoing(ctx, a.ID)
	if err != nil {
		t.Fatalf("Outgoing failed: %v", err)
	}
	if len(out) != 1 || out[0].ToUserID != d.ID {
		t.Errorf("outgoing = %+v", out)
	}

	sent, received, err := store.PendingPeers(ctx, a.ID)
	if err != nil {
		t.Fatalf("PendingPeers failed: %v", err)
	}
	if !sent[d.ID] || len(sent) != 1 {
		t.Errorf("sent = %v", sent)
	}
	if !received[b.ID] || !received[c.ID] || len(received) != 2 {
		t.Errorf("received = %v", received)
	}
}

func TestStore_CancelPendingInvolving(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := requeststore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx := context.Background()

	a := fixtures.CreateUser(ctx, "Ann", "ann")
	b := fixtures.CreateUser(ctx, "Ben", "ben")
	c := fixtures.CreateUser(ctx, "Cat", "cat")
	r1 := fixtures.CreateFriendRequest(ctx, a, b)
	r2 := fixtures.CreateFriendRequest(ctx, c, a)
	r3 := fixtures.CreateFriendRequest(ctx, b, c)

	ids, err := store.CancelPendingInvolving(ctx, a.ID)
	if err != nil {
		t.Fatalf("CancelPendingInvolving failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("cancelled %d, want 2", len(ids))
	}

	for _, tc := range []struct {
		id   primitive.ObjectID
		want string
	}{
		{r1.ID, models.RequestCancelled},
		{r2.ID, models.RequestCancelled},
		{r3.ID, models.RequestPending},
	} {
		got, err := store.GetByID(ctx, tc.id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Status != tc.want {
			t.Errorf("request %s: status %q, want %q", tc.id.Hex(), got.Status, tc.want)
		}
	}

	if err := store.RevertMany(ctx, ids, models.RequestCancelled); err != nil {
		t.Fatalf("RevertMany failed: %v", err)
	}
	got, _ := store.GetByID(ctx, r1.ID)
	if got.Status != models.RequestPending {
		t.Errorf("after revert: %q", got.Status)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := requeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, requeststore.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
