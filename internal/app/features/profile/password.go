// internal/app/features/profile/password.go
package profile

import (
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/formutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/inputval"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type passwordInput struct {
	CurrentPassword string `json:"current_password" validate:"required" label:"Current password"`
	NewPassword     string `json:"new_password" validate:"required" label:"New password"`
	ConfirmPassword string `json:"confirm_password" label:"Confirm password"`
}

// HandleChangePassword handles POST /profile/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}

	var in passwordInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.WriteValidation(w, res.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "password change")
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.Handle(w, r, "load user for password change failed", err, uierrors.NotFoundFor(userstore.ErrNotFound))
		return
	}
	if !authutil.CheckPassword(user.PasswordHash, in.CurrentPassword) {
		uierrors.WriteValidation(w, "Current password is incorrect.")
		return
	}
	if err := authutil.ValidatePassword(in.NewPassword, in.ConfirmPassword); err != nil {
		uierrors.WriteValidation(w, err.Error())
		return
	}

	hash, err := authutil.HashPassword(in.NewPassword)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Unable to change your password.")
		return
	}
	if err := h.Users.SetPasswordHash(ctx, uid, hash); err != nil {
		h.ErrLog.LogServerError(w, r, "save password failed", err, "Unable to change your password.")
		return
	}

	h.Log.Info("password changed", zap.String("user_id", uid.Hex()))
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}
