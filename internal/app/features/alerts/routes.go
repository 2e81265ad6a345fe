// internal/app/features/alerts/routes.go
package alerts

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleSend)
	r.Get("/active", h.ServeActive)
	r.Get("/mine", h.ServeMine)
	r.Get("/stream", h.ServeStream)
	r.Get("/{id}", h.ServeAlert)
	r.Post("/{id}/resolve", h.HandleResolve)
	return r
}
