// internal/app/features/login/signup.go
package login

import (
	"errors"
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/formutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/inputval"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.uber.org/zap"
)

type signupInput struct {
	Email           string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password        string `json:"password" validate:"required" label:"Password"`
	ConfirmPassword string `json:"confirm_password" label:"Confirm password"`
	Username        string `json:"username" validate:"required,username" label:"Username"`
}

// HandleSignup handles POST /auth/signup. The new account is signed in
// immediately; its profile stays incomplete until PUT /profile.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	in.Email = normalize.Email(in.Email)
	in.Username = normalize.Username(in.Username)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.WriteValidation(w, res.First())
		return
	}
	if err := authutil.ValidatePassword(in.Password, in.ConfirmPassword); err != nil {
		uierrors.WriteValidation(w, err.Error())
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "signup: hash password failed", err, "Unable to create your account.")
		return
	}

	role := models.RoleUser
	if h.AdminEmail != "" && normalize.Email(h.AdminEmail) == in.Email {
		role = models.RoleAdmin
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "signup")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         models.EmailLocalPart(in.Email),
		Username:     in.Username,
		Role:         role,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		uierrors.WriteError(w, http.StatusConflict, uierrors.CodeConflict, "An account with this email already exists.")
		return
	case errors.Is(err, userstore.ErrDuplicateUsername):
		uierrors.WriteError(w, http.StatusConflict, uierrors.CodeConflict, "That username is already taken.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "signup: create user failed", err, "Unable to create your account.")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.ErrLog.LogServerError(w, r, "signup: save session failed", err, "Your account was created; please sign in.",
			zap.String("user_id", u.ID.Hex()))
		return
	}
	if err := h.Logins.CreateFrom(ctx, r, u.ID, models.LoginMethodCookie); err != nil {
		h.Log.Warn("signup: record login failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	h.Audit.Signup(ctx, r, u.ID, role)
	h.Log.Info("user signed up", zap.String("user_id", u.ID.Hex()), zap.String("role", role))
	h.respond(w, r, http.StatusCreated, userstore.SessionUser(u))
}
