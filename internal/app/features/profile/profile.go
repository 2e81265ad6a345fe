// internal/app/features/profile/profile.go
package profile

import (
	"errors"
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/formutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/htmlsanitize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/inputval"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.uber.org/zap"
)

type profileInput struct {
	Name    string `json:"name" validate:"notblank,max=80" label:"Name"`
	Phone   string `json:"phone" validate:"required,phone" label:"Phone"`
	Address string `json:"address" validate:"required,min=5,max=200" label:"Address"`
}

type usernameInput struct {
	Username string `json:"username" validate:"required,username" label:"Username"`
}

// ServeProfile handles GET /profile. Accounts created without a name get
// one derived from their email on first read.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile load")
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.WriteError(w, http.StatusNotFound, uierrors.CodeNotFound, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "Unable to load your profile.")
		return
	}

	if user.Name == "" {
		name := models.EmailLocalPart(user.Email)
		if _, err := h.Users.InitName(ctx, uid, name); err != nil {
			h.Log.Warn("initialize profile name failed", zap.String("user_id", uid.Hex()), zap.Error(err))
		} else if fresh, err := h.Users.GetByID(ctx, uid); err == nil {
			user = fresh
		}
	}

	uierrors.WriteJSON(w, http.StatusOK, user)
}

// HandleUpdateProfile handles PUT /profile. A successful update marks the
// profile complete. Existing request and alert snapshots are not touched.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}

	var in profileInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	in.Name = normalize.Name(htmlsanitize.PlainText(in.Name))
	in.Address = htmlsanitize.PlainText(normalize.Text(in.Address))
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.WriteValidation(w, res.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile update")
	defer cancel()

	err := h.Users.UpdateProfile(ctx, uid, userstore.ProfileUpdate{
		Name:    in.Name,
		Phone:   in.Phone,
		Address: in.Address,
	})
	if err != nil {
		h.ErrLog.Handle(w, r, "update profile failed", err, uierrors.NotFoundFor(userstore.ErrNotFound))
		return
	}

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload profile failed", err, "")
		return
	}
	h.Log.Info("profile updated", zap.String("user_id", uid.Hex()))
	uierrors.WriteJSON(w, http.StatusOK, user)
}

// HandleUpdateUsername handles PUT /profile/username.
func (h *Handler) HandleUpdateUsername(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}

	var in usernameInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	in.Username = normalize.Username(in.Username)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.WriteValidation(w, res.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "username update")
	defer cancel()

	if err := h.Users.SetUsername(ctx, uid, in.Username); err != nil {
		h.ErrLog.Handle(w, r, "update username failed", err,
			uierrors.Conflict(userstore.ErrDuplicateUsername),
			uierrors.NotFoundFor(userstore.ErrNotFound))
		return
	}
	h.Log.Info("username updated", zap.String("user_id", uid.Hex()), zap.String("username", in.Username))
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"username": in.Username})
}
