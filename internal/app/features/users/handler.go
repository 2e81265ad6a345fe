// internal/app/features/users/handler.go
package users

import (
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/services/relations"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/authz"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/normalize"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the user directory.
type Handler struct {
	Relations *relations.Manager
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(rel *relations.Manager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Relations: rel, ErrLog: errLog, Log: logger}
}

type searchResponse struct {
	Query   string                   `json:"query"`
	Results []relations.SearchResult `json:"results"`
}

// ServeSearch handles GET /users/search?q=. Results exclude the caller and
// report how each user relates to them.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.WriteError(w, http.StatusUnauthorized, uierrors.CodeUnauthorized, "Please sign in to continue.")
		return
	}
	q := normalize.QueryParam(r.URL.Query().Get("q"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user search")
	defer cancel()

	results, err := h.Relations.Search(ctx, uid, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "user search failed", err, "Search is unavailable right now.",
			zap.String("query", q))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, searchResponse{Query: q, Results: results})
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/search", h.ServeSearch)
	return r
}
