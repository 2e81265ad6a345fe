// internal/app/features/admin/routes.go
package admin

import (
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auth"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/stats", h.ServeStats)

	r.Get("/users", h.ServeUsers)
	r.Patch("/users/{id}", h.HandleEdit)
	r.Post("/users/{id}/role", h.HandleRole)
	r.Post("/users/{id}/status", h.HandleStatus)
	r.Delete("/users/{id}", h.HandleDelete)

	r.Get("/audit", h.ServeAudit)

	r.Get("/feedback", h.ServeFeedback)
	r.Delete("/feedback/{id}", h.HandleDeleteFeedback)
	return r
}
