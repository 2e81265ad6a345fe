// internal/app/features/admin/audit.go
package admin

import (
	"net/http"
	"strconv"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/store/audit"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxAuditLimit = 500

type auditResponse struct {
	Events []audit.Event `json:"events"`
}

// ServeAudit handles GET /admin/audit?category=&event_type=&user_id=&limit=.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		Category:  normalize.QueryParam(q.Get("category")),
		EventType: normalize.QueryParam(q.Get("event_type")),
	}
	if raw := normalize.QueryParam(q.Get("user_id")); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, "Invalid user ID.")
			return
		}
		filter.UserID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, "Invalid limit.")
			return
		}
		filter.Limit = min(n, maxAuditLimit)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin list audit")
	defer cancel()

	events, err := h.AuditEvents.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list audit events failed", err, "Unable to load the audit log.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, auditResponse{Events: events})
}
