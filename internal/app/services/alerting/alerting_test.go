package alerting_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/services/alerting"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/notify"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/ratelimit"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/abhi-jithb/PreshnamSolver/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// recordingBroker captures published events.
type recordingBroker struct {
	mu     sync.Mutex
	events []notify.Event
}

func (b *recordingBroker) Publish(_ context.Context, ev notify.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}
func (b *recordingBroker) Ping(context.Context) error { return nil }
func (b *recordingBroker) Name() string               { return "recording" }
func (b *recordingBroker) Close() error               { return nil }

func (b *recordingBroker) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, ev := range b.events {
		out = append(out, ev.Type)
	}
	return out
}

func setup(t *testing.T, policy string) (*alerting.Broadcaster, *recordingBroker, *testutil.Fixtures, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	broker := &recordingBroker{}
	return alerting.NewBroadcaster(db, broker, policy, nil, zap.NewNop()), broker, testutil.NewFixtures(t, db), ctx
}

func TestSendAlert_SnapshotsFriends(t *testing.T) {
	b, broker, fx, ctx := setup(t, "")
	ann := fx.CreateUser(ctx, "Ann", "ann")
	ben := fx.CreateUser(ctx, "Ben", "ben")
	cat := fx.CreateUser(ctx, "Cat", "cat")
	fx.CreateFriendship(ctx, ann, ben)

	a, err := b.SendAlert(ctx, ann.ID, alerting.SendInput{Message: " <b>help</b> "})
	if err != nil {
		t.Fatalf("SendAlert failed: %v", err)
	}
	if a.Status != models.AlertActive || a.Type != models.AlertTypeSOS {
		t.Errorf("status/type = %q/%q", a.Status, a.Type)
	}
	if a.Location != models.DefaultAlertLocation {
		t.Errorf("Location = %q, want default", a.Location)
	}
	if a.Message != "help" {
		t.Errorf("Message = %q, want sanitized", a.Message)
	}
	if a.UserName != "Ann" || a.UserUsername != "ann" {
		t.Errorf("owner snapshot = %q/%q", a.UserName, a.UserUsername)
	}
	if len(a.Friends) != 1 || a.Friends[0].ID != ben.ID {
		t.Fatalf("Friends = %+v", a.Friends)
	}
	if got := broker.types(); len(got) != 1 || got[0] != notify.AlertRaised {
		t.Errorf("events = %v", got)
	}

	// A friend added afterwards does not see the alert.
	fx.CreateFriendship(ctx, ann, cat)
	visible, err := b.Active(ctx, cat.ID)
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("later friend sees %d alerts", len(visible))
	}
	if _, err := b.Get(ctx, cat.ID, a.ID, false); !errors.Is(err, alerting.ErrNotFound) {
		t.Errorf("Get by outsider: got %v, want ErrNotFound", err)
	}
	for _, id := range []primitive.ObjectID{ann.ID, ben.ID} {
		visible, _ := b.Active(ctx, id)
		if len(visible) != 1 || visible[0].ID != a.ID {
			t.Errorf("user %s sees %+v", id.Hex(), visible)
		}
	}
}

func TestSendAlert_Errors(t *testing.T) {
	b, broker, fx, ctx := setup(t, "")
	loner := fx.CreateUser(ctx, "Lone", "lone")
	ann := fx.CreateUser(ctx, "Ann", "ann")
	ben := fx.CreateUser(ctx, "Ben", "ben")
	fx.CreateFriendship(ctx, ann, ben)

	if _, err := b.SendAlert(ctx, loner.ID, alerting.SendInput{}); !errors.Is(err, alerting.ErrNoFriends) {
		t.Errorf("no friends: got %v, want ErrNoFriends", err)
	}
	if _, err := b.SendAlert(ctx, ann.ID, alerting.SendInput{Location: strings.Repeat("x", alerting.MaxLocationLength+1)}); !errors.Is(err, alerting.ErrInputTooLong) {
		t.Errorf("long location: got %v, want ErrInputTooLong", err)
	}
	if _, err := b.SendAlert(ctx, ann.ID, alerting.SendInput{Location: "Library"}); err != nil {
		t.Fatalf("first SendAlert failed: %v", err)
	}
	if _, err := b.SendAlert(ctx, ann.ID, alerting.SendInput{}); !errors.Is(err, alerting.ErrAlertAlreadyActive) {
		t.Errorf("second alert: got %v, want ErrAlertAlreadyActive", err)
	}
	if n := len(broker.types()); n != 1 {
		t.Errorf("published %d events, want 1", n)
	}
}

func TestSendAlert_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Stop()
	b := alerting.NewBroadcaster(db, notify.NewLocalBroker(notify.NewHub(0, zap.NewNop())), "", limiter, zap.NewNop())

	ann := fx.CreateUser(ctx, "Ann", "ann")
	ben := fx.CreateUser(ctx, "Ben", "ben")
	fx.CreateFriendship(ctx, ann, ben)

	a, err := b.SendAlert(ctx, ann.ID, alerting.SendInput{})
	if err != nil {
		t.Fatalf("SendAlert failed: %v", err)
	}
	if _, err := b.ResolveAlert(ctx, ann.ID, a.ID, false); err != nil {
		t.Fatalf("ResolveAlert failed: %v", err)
	}
	if _, err := b.SendAlert(ctx, ann.ID, alerting.SendInput{}); !errors.Is(err, alerting.ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}

func TestSendAlert_RefusedSendsKeepQuota(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	limiter := ratelimit.New(2, time.Minute)
	defer limiter.Stop()
	b := alerting.NewBroadcaster(db, notify.NewLocalBroker(notify.NewHub(0, zap.NewNop())), "", limiter, zap.NewNop())

	ann := fx.CreateUser(ctx, "Ann", "ann")
	ben := fx.CreateUser(ctx, "Ben", "ben")

	for i := 0; i < 6; i++ {
		if _, err := b.SendAlert(ctx, ann.ID, alerting.SendInput{}); !errors.Is(err, alerting.ErrNoFriends) {
			t.Fatalf("send %d without friends: got %v, want ErrNoFriends", i+1, err)
		}
	}

	fx.CreateFriendship(ctx, ann, ben)
	if _, err := b.SendAlert(ctx, ann.ID, alerting.SendInput{}); err != nil {
		t.Fatalf("SendAlert after befriending failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := b.SendAlert(ctx, ann.ID, alerting.SendInput{}); !errors.Is(err, alerting.ErrAlertAlreadyActive) {
			t.Fatalf("repeat send %d: got %v, want ErrAlertAlreadyActive", i+1, err)
		}
	}
	if got := limiter.Remaining(ann.ID.Hex()); got != 1 {
		t.Errorf("Remaining = %d, want 1", got)
	}
}

func TestResolveAlert_IdempotentNoRenotify(t *testing.T) {
	b, broker, fx, ctx := setup(t, "")
	ann := fx.CreateUser(ctx, "Ann", "ann")
	ben := fx.CreateUser(ctx, "Ben", "ben")
	a := fx.CreateAlert(ctx, ann, ben)

	first, err := b.ResolveAlert(ctx, ben.ID, a.ID, false)
	if err != nil {
		t.Fatalf("ResolveAlert failed: %v", err)
	}
	if first.Status != models.AlertResolved || first.ResolvedAt == nil || first.ResolvedBy == nil || *first.ResolvedBy != ben.ID {
		t.Fatalf("resolved alert = %+v", first)
	}

	second, err := b.ResolveAlert(ctx, ann.ID, a.ID, false)
	if err != nil {
		t.Fatalf("second ResolveAlert failed: %v", err)
	}
	if *second.ResolvedBy != ben.ID || !second.ResolvedAt.Equal(*first.ResolvedAt) {
		t.Error("second resolve must not modify the alert")
	}
	if got := broker.types(); len(got) != 1 || got[0] != notify.AlertResolved {
		t.Errorf("events = %v, want one alert.resolved", got)
	}

	if _, err := b.ResolveAlert(ctx, ann.ID, primitive.NewObjectID(), false); !errors.Is(err, alerting.ErrNotFound) {
		t.Errorf("unknown alert: got %v, want ErrNotFound", err)
	}
}

func TestResolveAlert_Policy(t *testing.T) {
	tests := []struct {
		name    string
		policy  string
		admin   bool
		wantErr error
	}{
		{"any lets outsiders resolve", alerting.PolicyAny, false, nil},
		{"participants blocks outsiders", alerting.PolicyParticipants, false, alerting.ErrForbidden},
		{"participants allows admins", alerting.PolicyParticipants, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, fx, ctx := setup(t, tt.policy)
			ann := fx.CreateUser(ctx, "Ann", "ann")
			ben := fx.CreateUser(ctx, "Ben", "ben")
			out := fx.CreateUser(ctx, "Out", "outsider")
			a := fx.CreateAlert(ctx, ann, ben)

			_, err := b.ResolveAlert(ctx, out.ID, a.ID, tt.admin)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMine(t *testing.T) {
	b, _, fx, ctx := setup(t, "")
	ann := fx.CreateUser(ctx, "Ann", "ann")
	ben := fx.CreateUser(ctx, "Ben", "ben")
	a := fx.CreateAlert(ctx, ann, ben)
	if _, err := b.ResolveAlert(ctx, ann.ID, a.ID, false); err != nil {
		t.Fatalf("ResolveAlert failed: %v", err)
	}
	fx.CreateAlert(ctx, ann, ben)

	mine, err := b.Mine(ctx, ann.ID)
	if err != nil {
		t.Fatalf("Mine failed: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("got %d alerts, want 2", len(mine))
	}
	if mine[0].Status != models.AlertActive {
		t.Error("newest alert must come first")
	}

	n, err := fx.DB().Collection("alerts").CountDocuments(ctx, bson.M{"user_id": ben.ID})
	if err != nil || n != 0 {
		t.Errorf("ben owns %d alerts, %v", n, err)
	}
}
