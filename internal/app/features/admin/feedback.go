// internal/app/features/admin/feedback.go
package admin

import (
	"net/http"
	"time"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type feedbackRow struct {
	ID        primitive.ObjectID `json:"id"`
	UserID    primitive.ObjectID `json:"user_id"`
	Email     string             `json:"email"`
	Message   string             `json:"message"`
	CreatedAt time.Time          `json:"created_at"`
}

type feedbackResponse struct {
	Feedback []feedbackRow `json:"feedback"`
}

// ServeFeedback handles GET /admin/feedback. Messages from deleted accounts
// are listed with an empty email.
func (h *Handler) ServeFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin list feedback")
	defer cancel()

	items, err := h.Feedback.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list feedback failed", err, "Unable to load feedback.")
		return
	}
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, fb := range items {
		ids = append(ids, fb.UserID)
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load feedback submitters failed", err, "Unable to load feedback.")
		return
	}

	rows := make([]feedbackRow, 0, len(items))
	for _, fb := range items {
		rows = append(rows, feedbackRow{
			ID:        fb.ID,
			UserID:    fb.UserID,
			Email:     users[fb.UserID].Email,
			Message:   fb.Message,
			CreatedAt: fb.CreatedAt,
		})
	}
	uierrors.WriteJSON(w, http.StatusOK, feedbackResponse{Feedback: rows})
}

// HandleDeleteFeedback handles DELETE /admin/feedback/{id}.
func (h *Handler) HandleDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin delete feedback")
	defer cancel()

	if err := h.Feedback.Delete(ctx, id); err != nil {
		h.ErrLog.Handle(w, r, "delete feedback failed", err, adminErrors...)
		return
	}
	h.Log.Info("feedback deleted", zap.String("feedback_id", id.Hex()))
	h.Audit.FeedbackDeleted(ctx, r, actorID, id)
	w.WriteHeader(http.StatusNoContent)
}
