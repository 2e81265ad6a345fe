// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auth"
)

// Handler serves the caller's identity.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ServeUserInfo handles GET /auth/me.
//
// Response format:
//
//	{ "id": "...", "name": "...", "username": "...", "email": "...", "role": "user", "profile_complete": true }
//
// Anonymous callers get 401. Clients treat the identity as loading until
// this call returns.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, user)
}
