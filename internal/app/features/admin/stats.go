// internal/app/features/admin/stats.go
package admin

import (
	"net/http"
	"time"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	loginstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/logins"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recentLogin struct {
	UserID    primitive.ObjectID `json:"user_id"`
	Email     string             `json:"email"`
	Name      string             `json:"name"`
	Method    string             `json:"method"`
	IP        string             `json:"ip"`
	CreatedAt time.Time          `json:"created_at"`
}

type statsResponse struct {
	Users        int64         `json:"users"`
	Feedback     int64         `json:"feedback"`
	ActiveAlerts int64         `json:"active_alerts"`
	RecentLogins []recentLogin `json:"recent_logins"`
}

// ServeStats handles GET /admin/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin stats")
	defer cancel()

	var out statsResponse
	var err error
	if out.Users, err = h.Users.Count(ctx); err != nil {
		h.ErrLog.LogServerError(w, r, "count users failed", err, "Unable to load stats.")
		return
	}
	if out.Feedback, err = h.Feedback.Count(ctx); err != nil {
		h.ErrLog.LogServerError(w, r, "count feedback failed", err, "Unable to load stats.")
		return
	}
	if out.ActiveAlerts, err = h.Alerts.CountActive(ctx); err != nil {
		h.ErrLog.LogServerError(w, r, "count active alerts failed", err, "Unable to load stats.")
		return
	}

	recs, err := h.Logins.Recent(ctx, loginstore.RecentLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "recent logins failed", err, "Unable to load stats.")
		return
	}
	ids := make([]primitive.ObjectID, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.UserID)
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load login users failed", err, "Unable to load stats.")
		return
	}

	out.RecentLogins = make([]recentLogin, 0, len(recs))
	for _, rec := range recs {
		u := users[rec.UserID]
		out.RecentLogins = append(out.RecentLogins, recentLogin{
			UserID:    rec.UserID,
			Email:     u.Email,
			Name:      u.DisplayName(),
			Method:    rec.Method,
			IP:        rec.IP,
			CreatedAt: rec.CreatedAt,
		})
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}
