package logout

import "github.com/go-chi/chi/v5"

// MountRoutes registers POST /logout on r (mounted at /auth).
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/logout", h.ServeLogout)
}
