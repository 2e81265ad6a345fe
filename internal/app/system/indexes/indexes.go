// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

Several of these indexes are correctness constraints, not just speedups:
the unique partial indexes on friend_requests and alerts are what make
"one pending request per ordered pair" and "one active alert per user"
hold under concurrent writes.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, step := range []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"friend_requests", ensureFriendRequests},
		{"friends", ensureFriends},
		{"alerts", ensureAlerts},
		{"feedback", ensureFeedback},
		{"login_records", ensureLoginRecords},
		{"audit_events", ensureAuditEvents},
	} {
		if err := step.fn(ctx, db); err != nil {
			problems = append(problems, step.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name    string `bson:"name"`
	Key     bson.D `bson:"key"`
	Unique  *bool  `bson:"unique,omitempty"`
	Partial bson.M `bson:"partialFilterExpression,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

// samePartial compares partial filters by their extended-JSON form, which
// normalizes numeric and document types decoded from the server.
func samePartial(want interface{}, have bson.M) bool {
	if want == nil {
		return len(have) == 0
	}
	wb, err1 := bson.MarshalExtJSON(want, false, false)
	hb, err2 := bson.MarshalExtJSON(have, false, false)
	if err1 != nil || err2 != nil {
		return false
	}
	var w, h map[string]interface{}
	if bson.UnmarshalExtJSON(wb, false, &w) != nil || bson.UnmarshalExtJSON(hb, false, &h) != nil {
		return false
	}
	return reflect.DeepEqual(w, h)
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet creates each desired index, reusing an existing index with
// the same keys and options, and dropping and recreating one whose name,
// uniqueness or partial filter differ.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listIndexes(ctx, coll)

	for _, m := range models {
		var name string
		var unique *bool
		var partial interface{}
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
			partial = m.Options.PartialFilterExpression
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolVal(unique)),
		}

		if ex, ok := existing[sig]; ok {
			if boolVal(unique) == boolVal(ex.Unique) && samePartial(partial, ex.Partial) && (name == "" || ex.Name == name) {
				zap.L().Info("reusing existing index", fields...)
				continue
			}
			zap.L().Info("index differs from desired; recreating",
				append(fields, zap.String("existing", ex.Name))...)
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
			if isDuplicateKeyErr(err) && boolVal(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		zap.L().Info("index ensured", append(fields,
			zap.String("created_name", created),
			zap.String("took", time.Since(start).String()))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Username is optional until the profile is completed.
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_username").
				SetPartialFilterExpression(bson.M{"username": bson.M{"$type": "string"}}),
		},
		// Directory prefix search on display name.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_nameci_id"),
		},
		// Admin console listing and counts.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_users_status_created"),
		},
	})
}

func ensureFriendRequests(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("friend_requests"), []mongo.IndexModel{
		// At most one pending request per ordered pair.
		{
			Keys: bson.D{{Key: "from_user_id", Value: 1}, {Key: "to_user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_friend_requests_pending_pair").
				SetPartialFilterExpression(bson.M{"status": "pending"}),
		},
		// ...and at most one in either direction.
		{
			Keys: bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_friend_requests_pending_unordered").
				SetPartialFilterExpression(bson.M{"status": "pending", "pair_key": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "to_user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_friend_requests_to_status_created"),
		},
		{
			Keys:    bson.D{{Key: "from_user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_friend_requests_from_status_created"),
		},
	})
}

func ensureFriends(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("friends"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "friend_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_friends_user_friend"),
		},
		// Reverse lookups when a user is deleted.
		{
			Keys:    bson.D{{Key: "friend_id", Value: 1}},
			Options: options.Index().SetName("idx_friends_friend"),
		},
	})
}

func ensureAlerts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("alerts"), []mongo.IndexModel{
		// At most one active alert per owner.
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_alerts_active_owner").
				SetPartialFilterExpression(bson.M{"status": "active"}),
		},
		// Listener query: active alerts where I am a recipient.
		{
			Keys:    bson.D{{Key: "friends.id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_alerts_recipient_status"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_alerts_owner_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_alerts_status"),
		},
	})
}

func ensureFeedback(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("feedback"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_feedback_created"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_feedback_user"),
		},
	})
}

func ensureLoginRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("login_records"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_login_records_created"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_login_records_user_created"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
