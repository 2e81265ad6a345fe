// Package alerting raises and resolves SOS alerts and announces every
// state change on the notification broker.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	alertstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/alerts"
	friendstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/friendships"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/htmlsanitize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/notify"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/ratelimit"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Resolve policies.
const (
	PolicyAny          = "any"
	PolicyParticipants = "participants"
)

// Input limits.
const (
	MaxLocationLength = 200
	MaxMessageLength  = 500
)

var (
	ErrNoFriends          = errors.New("add friends before sending an SOS")
	ErrAlertAlreadyActive = alertstore.ErrAlertAlreadyActive
	ErrNotFound           = alertstore.ErrNotFound
	ErrForbidden          = errors.New("you cannot act on this alert")
	ErrRateLimited        = errors.New("too many alerts; please wait before sending another")
	ErrOwnerNotFound      = errors.New("user not found")
	ErrInputTooLong       = errors.New("location or message is too long")
)

// SendInput is the caller-supplied part of an alert.
type SendInput struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// Broadcaster owns the alert lifecycle.
type Broadcaster struct {
	alerts  *alertstore.Store
	friends *friendstore.Store
	users   *userstore.Store
	broker  notify.Broker
	policy  string
	limiter *ratelimit.Limiter
	log     *zap.Logger
}

// NewBroadcaster builds a Broadcaster. limiter may be nil to disable
// per-user send limits.
func NewBroadcaster(db *mongo.Database, broker notify.Broker, policy string, limiter *ratelimit.Limiter, logger *zap.Logger) *Broadcaster {
	policy = strings.ToLower(strings.TrimSpace(policy))
	if policy == "" {
		policy = PolicyAny
	}
	return &Broadcaster{
		alerts:  alertstore.New(db),
		friends: friendstore.New(db),
		users:   userstore.New(db),
		broker:  broker,
		policy:  policy,
		limiter: limiter,
		log:     logger,
	}
}

// Policy returns the configured resolve policy.
func (b *Broadcaster) Policy() string { return b.policy }

// SendAlert raises an SOS for ownerID addressed to the current friend list.
// The recipients and the owner's display fields are copied into the alert
// and never change afterwards.
func (b *Broadcaster) SendAlert(ctx context.Context, ownerID primitive.ObjectID, in SendInput) (models.Alert, error) {
	location := htmlsanitize.PlainText(normalize.Text(in.Location))
	message := htmlsanitize.PlainText(normalize.Text(in.Message))
	if utf8.RuneCountInString(location) > MaxLocationLength || utf8.RuneCountInString(message) > MaxMessageLength {
		return models.Alert{}, ErrInputTooLong
	}
	if location == "" {
		location = models.DefaultAlertLocation
	}

	owner, err := b.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.Alert{}, ErrOwnerNotFound
		}
		return models.Alert{}, fmt.Errorf("load owner: %w", err)
	}

	rows, err := b.friends.List(ctx, ownerID)
	if err != nil {
		return models.Alert{}, fmt.Errorf("load friends: %w", err)
	}
	if len(rows) == 0 {
		return models.Alert{}, ErrNoFriends
	}
	recipients := make([]models.FriendRef, 0, len(rows))
	for _, f := range rows {
		recipients = append(recipients, models.FriendRef{ID: f.FriendID, Name: f.FriendName, Username: f.FriendUsername})
	}

	// Refused sends do not count against the limit. The unique index still
	// settles a concurrent second send.
	switch _, err := b.alerts.ActiveOwnedBy(ctx, ownerID); {
	case err == nil:
		return models.Alert{}, ErrAlertAlreadyActive
	case !errors.Is(err, alertstore.ErrNotFound):
		return models.Alert{}, fmt.Errorf("check active alert: %w", err)
	}
	if b.limiter != nil && !b.limiter.Allow(ownerID.Hex()) {
		b.log.Warn("sos rate limited", zap.String("user_id", ownerID.Hex()))
		return models.Alert{}, ErrRateLimited
	}

	a, err := b.alerts.Create(ctx, models.Alert{
		UserID:       owner.ID,
		UserName:     owner.DisplayName(),
		UserUsername: owner.Username,
		Type:         models.AlertTypeSOS,
		Location:     location,
		Message:      message,
		Friends:      recipients,
	})
	if err != nil {
		if errors.Is(err, ErrAlertAlreadyActive) {
			return models.Alert{}, err
		}
		return models.Alert{}, fmt.Errorf("create alert: %w", err)
	}

	b.log.Info("sos raised",
		zap.String("alert_id", a.ID.Hex()),
		zap.String("user_id", ownerID.Hex()),
		zap.Int("recipients", len(recipients)))
	b.publish(ctx, notify.AlertRaised, a)
	return a, nil
}

// ResolveAlert marks alertID resolved on behalf of actorID. Resolving an
// alert that is already resolved returns it unchanged and publishes nothing.
func (b *Broadcaster) ResolveAlert(ctx context.Context, actorID, alertID primitive.ObjectID, isAdmin bool) (models.Alert, error) {
	a, err := b.alerts.GetByID(ctx, alertID)
	if err != nil {
		return models.Alert{}, err
	}

	recipients := make([]primitive.ObjectID, 0, len(a.Friends))
	for _, f := range a.Friends {
		recipients = append(recipients, f.ID)
	}
	if !authz.CanResolveAlert(b.policy, actorID, a.UserID, recipients, isAdmin) {
		return models.Alert{}, ErrForbidden
	}
	if !isAdmin && !a.VisibleTo(actorID) {
		b.log.Warn("alert resolved by non-participant",
			zap.String("alert_id", alertID.Hex()),
			zap.String("user_id", actorID.Hex()),
			zap.String("owner_id", a.UserID.Hex()))
	}

	resolved, changed, err := b.alerts.Resolve(ctx, alertID, actorID)
	if err != nil {
		return models.Alert{}, fmt.Errorf("resolve alert: %w", err)
	}
	if !changed {
		return *resolved, nil
	}

	b.log.Info("sos resolved",
		zap.String("alert_id", alertID.Hex()),
		zap.String("user_id", actorID.Hex()))
	b.publish(ctx, notify.AlertResolved, *resolved)
	return *resolved, nil
}

// Announce publishes a resolve performed outside ResolveAlert, such as the
// admin account deletion cascade.
func (b *Broadcaster) Announce(ctx context.Context, a models.Alert) {
	typ := notify.AlertRaised
	if a.Status == models.AlertResolved {
		typ = notify.AlertResolved
	}
	b.publish(ctx, typ, a)
}

// publish never fails the caller: the alert is already stored, and
// listeners pick it up from the snapshot on their next connect.
func (b *Broadcaster) publish(ctx context.Context, typ string, a models.Alert) {
	if b.broker == nil {
		return
	}
	if err := b.broker.Publish(ctx, notify.NewAlertEvent(typ, a)); err != nil {
		b.log.Error("publish alert event failed",
			zap.String("alert_id", a.ID.Hex()),
			zap.String("type", typ),
			zap.String("broker", b.broker.Name()),
			zap.Error(err))
	}
}

// Active returns active alerts addressed to userID plus userID's own.
func (b *Broadcaster) Active(ctx context.Context, userID primitive.ObjectID) ([]models.Alert, error) {
	return b.alerts.ActiveVisibleTo(ctx, userID)
}

// Get loads an alert the caller may see: the owner, a snapshot member, or
// an admin. Others get ErrNotFound.
func (b *Broadcaster) Get(ctx context.Context, userID, alertID primitive.ObjectID, isAdmin bool) (*models.Alert, error) {
	a, err := b.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !a.VisibleTo(userID) {
		return nil, ErrNotFound
	}
	return a, nil
}

// Mine returns the caller's own alert history, newest first.
func (b *Broadcaster) Mine(ctx context.Context, userID primitive.ObjectID) ([]models.Alert, error) {
	return b.alerts.History(ctx, userID)
}
