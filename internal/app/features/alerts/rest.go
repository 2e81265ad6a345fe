// internal/app/features/alerts/rest.go
package alerts

import (
	"errors"
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/services/alerting"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/formutil"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type alertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
}

func unauthorized(w http.ResponseWriter) {
	uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
}

// HandleSend handles POST /alerts. An empty body is allowed and sends an
// alert at the default location.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		unauthorized(w)
		return
	}

	var in alerting.SendInput
	if err := formutil.Decode(w, r, &in); err != nil && !errors.Is(err, formutil.ErrEmptyBody) {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "send alert")
	defer cancel()

	a, err := h.Alerts.SendAlert(ctx, uid, in)
	if err != nil {
		h.ErrLog.Handle(w, r, "send alert failed", err, alertErrors...)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, a)
}

// HandleResolve handles POST /alerts/{id}/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		unauthorized(w)
		return
	}
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "resolve alert")
	defer cancel()

	a, err := h.Alerts.ResolveAlert(ctx, uid, id, authz.IsAdmin(r))
	if err != nil {
		h.ErrLog.Handle(w, r, "resolve alert failed", err, alertErrors...)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, a)
}

// ServeActive handles GET /alerts/active.
func (h *Handler) ServeActive(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		unauthorized(w)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list active alerts")
	defer cancel()

	rows, err := h.Alerts.Active(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list active alerts failed", err, "Unable to load alerts.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, alertsResponse{Alerts: rows})
}

// ServeMine handles GET /alerts/mine.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		unauthorized(w)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list own alerts")
	defer cancel()

	rows, err := h.Alerts.Mine(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list own alerts failed", err, "Unable to load alerts.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, alertsResponse{Alerts: rows})
}

// ServeAlert handles GET /alerts/{id}.
func (h *Handler) ServeAlert(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		unauthorized(w)
		return
	}
	id, ok := alertID(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get alert")
	defer cancel()

	a, err := h.Alerts.Get(ctx, uid, id, authz.IsAdmin(r))
	if err != nil {
		h.ErrLog.Handle(w, r, "get alert failed", err, alertErrors...)
		return
	}
	h.Log.Debug("alert viewed", zap.String("alert_id", id.Hex()))
	uierrors.WriteJSON(w, http.StatusOK, a)
}

func alertID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, "Invalid alert ID.")
		return primitive.NilObjectID, false
	}
	return id, true
}
