// internal/app/features/friends/requests.go
package friends

import (
	"context"
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/formutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/inputval"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type sendInput struct {
	ToUserID string `json:"to_user_id" validate:"required,objectid" label:"to_user_id"`
}

// HandleSend handles POST /friends/requests.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}

	var in sendInput
	if err := formutil.Decode(w, r, &in); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.WriteValidation(w, res.First())
		return
	}
	toID, _ := primitive.ObjectIDFromHex(in.ToUserID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "send friend request")
	defer cancel()

	fr, err := h.Relations.SendRequest(ctx, uid, toID)
	if err != nil {
		h.ErrLog.Handle(w, r, "send friend request failed", err, relationErrors...)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, fr)
}

type transitionFunc func(ctx context.Context, actorID, requestID primitive.ObjectID) (models.FriendRequest, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string, fn transitionFunc) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, op)
	defer cancel()

	fr, err := fn(ctx, uid, id)
	if err != nil {
		h.ErrLog.Handle(w, r, op+" failed", err, relationErrors...)
		return
	}
	h.Log.Debug(op, zap.String("request_id", id.Hex()), zap.String("status", fr.Status))
	uierrors.WriteJSON(w, http.StatusOK, fr)
}

// HandleAccept handles POST /friends/requests/{id}/accept.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "accept friend request", h.Relations.AcceptRequest)
}

// HandleReject handles POST /friends/requests/{id}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject friend request", h.Relations.RejectRequest)
}

// HandleCancel handles POST /friends/requests/{id}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "cancel friend request", h.Relations.CancelRequest)
}
