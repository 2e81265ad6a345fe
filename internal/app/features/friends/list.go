// internal/app/features/friends/list.go
package friends

import (
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
)

type friendsResponse struct {
	Friends []models.Friendship `json:"friends"`
}

type requestsResponse struct {
	Requests []models.FriendRequest `json:"requests"`
}

// ServeFriends handles GET /friends.
func (h *Handler) ServeFriends(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list friends")
	defer cancel()

	rows, err := h.Relations.Friends(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list friends failed", err, "Unable to load your friends.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, friendsResponse{Friends: rows})
}

// ServeIncoming handles GET /friends/requests/incoming.
func (h *Handler) ServeIncoming(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list incoming requests")
	defer cancel()

	reqs, err := h.Relations.Incoming(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list incoming requests failed", err, "Unable to load friend requests.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, requestsResponse{Requests: reqs})
}

// ServeOutgoing handles GET /friends/requests/outgoing.
func (h *Handler) ServeOutgoing(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list outgoing requests")
	defer cancel()

	reqs, err := h.Relations.Outgoing(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list outgoing requests failed", err, "Unable to load friend requests.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, requestsResponse{Requests: reqs})
}

// HandleRemove handles DELETE /friends/{friendID}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}
	friendID, ok := idParam(w, r, "friendID")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "remove friend")
	defer cancel()

	if err := h.Relations.RemoveFriend(ctx, uid, friendID); err != nil {
		h.ErrLog.Handle(w, r, "remove friend failed", err, relationErrors...)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
