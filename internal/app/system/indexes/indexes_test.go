package indexes_test

import (
	"testing"
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/indexes"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/abhi-jithb/PreshnamSolver/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupBareTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupBareTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	// Second call should reuse everything.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupBareTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll     string
		expected []string
	}{
		{"users", []string{"uniq_users_email", "uniq_users_username", "idx_users_nameci_id", "idx_users_status_created"}},
		{"friend_requests", []string{"uniq_friend_requests_pending_pair", "uniq_friend_requests_pending_unordered", "idx_friend_requests_to_status_created", "idx_friend_requests_from_status_created"}},
		{"friends", []string{"uniq_friends_user_friend", "idx_friends_friend"}},
		{"alerts", []string{"uniq_alerts_active_owner", "idx_alerts_recipient_status", "idx_alerts_owner_created", "idx_alerts_status"}},
		{"feedback", []string{"idx_feedback_created", "idx_feedback_user"}},
		{"login_records", []string{"idx_login_records_created", "idx_login_records_user_created"}},
		{"audit_events", []string{"idx_audit_timestamp", "idx_audit_user_timestamp", "idx_audit_category_type_timestamp"}},
	}

	for _, tt := range tests {
		t.Run(tt.coll, func(t *testing.T) {
			names := indexNames(t, db, tt.coll)
			for _, want := range tt.expected {
				if !names[want] {
					t.Errorf("expected index %q on %s", want, tt.coll)
				}
			}
		})
	}
}

func TestPendingRequestUniqueness(t *testing.T) {
	db := testutil.SetupBareTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	from, to := primitive.NewObjectID(), primitive.NewObjectID()
	doc := func(status string) bson.M {
		return bson.M{
			"_id":          primitive.NewObjectID(),
			"from_user_id": from,
			"to_user_id":   to,
			"status":       status,
			"created_at":   time.Now().UTC(),
		}
	}
	coll := db.Collection("friend_requests")

	if _, err := coll.InsertOne(ctx, doc("pending")); err != nil {
		t.Fatalf("first pending insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, doc("pending")); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("second pending insert: expected duplicate key error, got %v", err)
	}
	// Terminal requests for the same pair are history, not conflicts.
	if _, err := coll.InsertOne(ctx, doc("rejected")); err != nil {
		t.Errorf("rejected insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, doc("rejected")); err != nil {
		t.Errorf("second rejected insert failed: %v", err)
	}
	// The reverse direction is a different ordered pair.
	rev := doc("pending")
	rev["from_user_id"], rev["to_user_id"] = to, from
	if _, err := coll.InsertOne(ctx, rev); err != nil {
		t.Errorf("reverse pending insert failed: %v", err)
	}
}

func TestFriendRequestUnorderedPairUniqueness(t *testing.T) {
	db := testutil.SetupBareTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	doc := func(from, to primitive.ObjectID, status string) bson.M {
		return bson.M{
			"_id":          primitive.NewObjectID(),
			"from_user_id": from,
			"to_user_id":   to,
			"status":       status,
			"pair_key":     models.RequestPairKey(from, to),
			"created_at":   time.Now().UTC(),
		}
	}
	coll := db.Collection("friend_requests")

	if _, err := coll.InsertOne(ctx, doc(a, b, "pending")); err != nil {
		t.Fatalf("a->b insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, doc(b, a, "pending")); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("b->a pending insert: expected duplicate key error, got %v", err)
	}
	if _, err := coll.InsertOne(ctx, doc(b, a, "cancelled")); err != nil {
		t.Errorf("b->a cancelled insert failed: %v", err)
	}
}

func TestActiveAlertUniqueness(t *testing.T) {
	db := testutil.SetupBareTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	owner := primitive.NewObjectID()
	doc := func(status string) bson.M {
		return bson.M{"_id": primitive.NewObjectID(), "user_id": owner, "status": status, "created_at": time.Now().UTC()}
	}
	coll := db.Collection("alerts")

	if _, err := coll.InsertOne(ctx, doc("resolved")); err != nil {
		t.Fatalf("resolved insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, doc("active")); err != nil {
		t.Fatalf("active insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, doc("active")); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("second active insert: expected duplicate key error, got %v", err)
	}
}

func TestUsernameUniqueness_AllowsMissing(t *testing.T) {
	db := testutil.SetupBareTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	coll := db.Collection("users")
	// Two users without usernames must both be accepted.
	if _, err := coll.InsertOne(ctx, bson.M{"email": "a@example.com"}); err != nil {
		t.Fatalf("insert a failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"email": "b@example.com"}); err != nil {
		t.Fatalf("insert b failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"email": "c@example.com", "username": "sam"}); err != nil {
		t.Fatalf("insert c failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"email": "d@example.com", "username": "sam"}); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("duplicate username: expected duplicate key error, got %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"email": "A@example.com"}); err != nil {
		t.Errorf("distinct email insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"email": "a@example.com"}); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("duplicate email: expected duplicate key error, got %v", err)
	}
}

func TestEnsureAll_RecreatesChangedIndex(t *testing.T) {
	db := testutil.SetupBareTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys, wrong name and no uniqueness: EnsureAll must replace it.
	_, err := db.Collection("friends").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "friend_id", Value: 1}},
	})
	if err != nil {
		t.Fatalf("pre-create index failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "friends")
	if !names["uniq_friends_user_friend"] {
		t.Error("expected uniq_friends_user_friend after reconcile")
	}
	if names["user_id_1_friend_id_1"] {
		t.Error("expected default-named index to be dropped")
	}
}
