// internal/app/features/friends/routes.go
package friends

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeFriends)
	r.Delete("/{friendID}", h.HandleRemove)

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.HandleSend)
		r.Get("/incoming", h.ServeIncoming)
		r.Get("/outgoing", h.ServeOutgoing)
		r.Post("/{id}/accept", h.HandleAccept)
		r.Post("/{id}/reject", h.HandleReject)
		r.Post("/{id}/cancel", h.HandleCancel)
	})
	return r
}
