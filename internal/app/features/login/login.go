// internal/app/features/login/login.go
package login

import (
	"errors"
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auth"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/formutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/inputval"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	modeCookie = "cookie"
	modeToken  = "token"
)

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
	// Mode "token" skips the session cookie; the client keeps the bearer token.
	Mode string `json:"mode" validate:"omitempty,oneof=cookie token" label:"Mode"`
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.WriteValidation(w, res.First())
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, in.Email); !ok {
			h.Log.Warn("login rate limited", zap.String("email", in.Email))
			h.Audit.LoginFailedRateLimit(r.Context(), r, in.Email)
			uierrors.WriteError(w, http.StatusTooManyRequests, uierrors.CodeRateLimited, msg)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.LogServerError(w, r, "login: load user failed", err, "Unable to sign in right now.")
		return
	}
	if u == nil || !authutil.CheckPassword(u.PasswordHash, in.Password) {
		var uid *primitive.ObjectID
		if u != nil {
			uid = &u.ID
		}
		h.Audit.LoginFailedWrongPassword(ctx, r, uid, in.Email)
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Invalid email or password.")
		return
	}
	if u.Status == models.StatusSuspended {
		h.Log.Info("login refused for suspended user", zap.String("user_id", u.ID.Hex()))
		h.Audit.LoginFailedUserSuspended(ctx, r, u.ID)
		uierrors.WriteError(w, http.StatusForbidden, uierrors.CodeForbidden, "This account has been suspended.")
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(in.Email)
	}

	method := models.LoginMethodToken
	if in.Mode != modeToken {
		method = models.LoginMethodCookie
		if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
			h.ErrLog.LogServerError(w, r, "login: save session failed", err, "Unable to sign in right now.",
				zap.String("user_id", u.ID.Hex()))
			return
		}
	}
	if err := h.Logins.CreateFrom(ctx, r, u.ID, method); err != nil {
		// Sign-in still succeeds; the record is informational.
		h.Log.Warn("login: record login failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	h.Audit.LoginSuccess(ctx, r, u.ID, method)
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()), zap.String("method", method))
	h.respond(w, r, http.StatusOK, userstore.SessionUser(*u))
}

// HandleToken handles POST /auth/token: a fresh bearer token for the
// signed-in caller.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}
	if h.SessionMgr.Tokens() == nil {
		uierrors.WriteError(w, http.StatusNotFound, uierrors.CodeNotFound, "Bearer tokens are not enabled.")
		return
	}
	h.respond(w, r, http.StatusOK, su)
}
