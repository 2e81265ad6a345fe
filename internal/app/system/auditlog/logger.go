// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/store/audit"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth covers signup and sign-in outcomes.
	Auth string
	// Admin covers admin changes to users and feedback.
	Admin string
}

// Validate reports an unknown mode.
func (c Config) Validate() error {
	for name, v := range map[string]string{"audit_auth": c.Auth, "audit_admin": c.Admin} {
		switch v {
		case "", ModeAll, ModeDB, ModeLog, ModeOff:
		default:
			return fmt.Errorf("%s must be all|db|log|off, got %q", name, v)
		}
	}
	return nil
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}

	if setting == ModeAll || setting == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, typ string, userID *primitive.ObjectID, success bool) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: typ,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// --- Authentication Events ---

// Signup logs a new account.
func (l *Logger) Signup(ctx context.Context, r *http.Request, userID primitive.ObjectID, role string) {
	ev := authEvent(r, audit.EventSignup, &userID, true)
	ev.Details = map[string]string{"role": role}
	l.Log(ctx, ev)
}

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, method string) {
	ev := authEvent(r, audit.EventLoginSuccess, &userID, true)
	ev.Details = map[string]string{"method": method}
	l.Log(ctx, ev)
}

// LoginFailedWrongPassword logs a bad email or password. userID is nil
// when no account has the email.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID *primitive.ObjectID, email string) {
	ev := authEvent(r, audit.EventLoginFailedWrongPassword, userID, false)
	ev.FailureReason = "invalid credentials"
	ev.Details = map[string]string{"email": email}
	l.Log(ctx, ev)
}

// LoginFailedUserSuspended logs a sign-in refused for a suspended account.
func (l *Logger) LoginFailedUserSuspended(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	ev := authEvent(r, audit.EventLoginFailedUserSuspended, &userID, false)
	ev.FailureReason = "account suspended"
	l.Log(ctx, ev)
}

// LoginFailedRateLimit logs a sign-in refused by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	ev := authEvent(r, audit.EventLoginFailedRateLimit, nil, false)
	ev.FailureReason = "rate limited"
	ev.Details = map[string]string{"email": email}
	l.Log(ctx, ev)
}

// --- Admin Events ---

func (l *Logger) admin(ctx context.Context, r *http.Request, typ string, actorID primitive.ObjectID, target *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: typ,
		UserID:    target,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}

// UserUpdated logs an admin edit of a user's profile fields.
func (l *Logger) UserUpdated(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventUserUpdated, actorID, &targetUserID, nil)
}

// RoleChanged logs a role change.
func (l *Logger) RoleChanged(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, oldRole, newRole string) {
	l.admin(ctx, r, audit.EventUserRoleChanged, actorID, &targetUserID,
		map[string]string{"old_role": oldRole, "new_role": newRole})
}

// StatusChanged logs a suspension or reactivation.
func (l *Logger) StatusChanged(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, suspended bool) {
	typ := audit.EventUserReactivated
	if suspended {
		typ = audit.EventUserSuspended
	}
	l.admin(ctx, r, typ, actorID, &targetUserID, nil)
}

// UserDeleted logs an account deletion. The email is kept because the
// user document is gone.
func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, email string) {
	l.admin(ctx, r, audit.EventUserDeleted, actorID, &targetUserID, map[string]string{"email": email})
}

// FeedbackDeleted logs removal of a feedback entry.
func (l *Logger) FeedbackDeleted(ctx context.Context, r *http.Request, actorID, feedbackID primitive.ObjectID) {
	l.admin(ctx, r, audit.EventFeedbackDeleted, actorID, nil, map[string]string{"feedback_id": feedbackID.Hex()})
}
