// internal/app/features/login/routes.go
package login

import (
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the credential endpoints on r (mounted at /auth).
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Post("/signup", h.HandleSignup)
	r.Post("/login", h.HandleLogin)
	r.With(sm.RequireSignedIn).Post("/token", h.HandleToken)
}
