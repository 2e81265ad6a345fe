// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Email: the address users sign in with; stored lower-cased and unique

import (
	"net/http"
	"time"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	loginstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/logins"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auditlog"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auth"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves sign-up, sign-in and token refresh.
type Handler struct {
	Users      *userstore.Store
	Logins     *loginstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter // nil disables login rate limiting
	Audit      *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger

	// AdminEmail signs up as an admin instead of a regular user.
	AdminEmail string
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, adminEmail string, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Logins:     loginstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Audit:      audit,
		ErrLog:     errLog,
		Log:        logger,
		AdminEmail: adminEmail,
	}
}

// sessionResponse is returned by signup, login and token refresh.
type sessionResponse struct {
	User      *auth.SessionUser `json:"user"`
	Token     string            `json:"token,omitempty"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

// respond writes the identity plus a bearer token when tokens are enabled.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, su *auth.SessionUser) {
	resp := sessionResponse{User: su}
	if tokens := h.SessionMgr.Tokens(); tokens != nil {
		tok, exp, err := tokens.Issue(su.ID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "issue token failed", err, "Unable to sign in right now.",
				zap.String("user_id", su.ID))
			return
		}
		resp.Token = tok
		resp.ExpiresAt = &exp
	}
	uierrors.WriteJSON(w, status, resp)
}
