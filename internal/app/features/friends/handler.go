// internal/app/features/friends/handler.go
package friends

import (
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/services/relations"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves friend lists and the friend request workflow.
type Handler struct {
	Relations *relations.Manager
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(rel *relations.Manager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Relations: rel, ErrLog: errLog, Log: logger}
}

// relationErrors maps service errors to responses.
var relationErrors = []uierrors.Mapping{
	uierrors.BadRequestFor(relations.ErrSelfRequest),
	uierrors.NotFoundFor(relations.ErrUserNotFound),
	uierrors.NotFoundFor(relations.ErrRequestNotFound),
	uierrors.Conflict(relations.ErrAlreadyFriends),
	uierrors.Conflict(relations.ErrReverseRequestPending),
	uierrors.Conflict(relations.ErrDuplicateRequest),
	uierrors.Conflict(relations.ErrNotPending),
	uierrors.ForbiddenFor(relations.ErrNotParty),
	uierrors.NotFoundFor(relations.ErrNotFriends),
}

// idParam parses the {name} URL parameter, writing 400 when it is not an
// ObjectID.
func idParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, "Invalid ID.")
		return primitive.NilObjectID, false
	}
	return id, true
}
