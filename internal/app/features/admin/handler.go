// internal/app/features/admin/handler.go
package admin

import (
	"errors"
	"net/http"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/services/alerting"
	alertstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/alerts"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/store/audit"
	feedbackstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/feedback"
	requeststore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/friendrequests"
	friendstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/friendships"
	loginstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/logins"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/auditlog"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	errSelfDemote  = errors.New("you cannot remove your own admin role")
	errSelfSuspend = errors.New("you cannot suspend your own account")
	errSelfDelete  = errors.New("you cannot delete your own account")
)

// Handler serves the admin console. Every route requires the admin role.
type Handler struct {
	DB          *mongo.Database
	Users       *userstore.Store
	Requests    *requeststore.Store
	Friends     *friendstore.Store
	Alerts      *alertstore.Store
	Feedback    *feedbackstore.Store
	Logins      *loginstore.Store
	AuditEvents *audit.Store
	Broadcaster *alerting.Broadcaster
	Audit       *auditlog.Logger
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, b *alerting.Broadcaster, audits *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Users:       userstore.New(db),
		Requests:    requeststore.New(db),
		Friends:     friendstore.New(db),
		Alerts:      alertstore.New(db),
		Feedback:    feedbackstore.New(db),
		Logins:      loginstore.New(db),
		AuditEvents: audit.New(db),
		Broadcaster: b,
		Audit:       audits,
		ErrLog:      errLog,
		Log:         logger,
	}
}

var adminErrors = []uierrors.Mapping{
	uierrors.NotFoundFor(userstore.ErrNotFound),
	uierrors.NotFoundFor(feedbackstore.ErrNotFound),
	uierrors.Conflict(userstore.ErrDuplicateEmail),
	uierrors.Conflict(userstore.ErrDuplicateUsername),
	uierrors.BadRequestFor(errSelfDemote),
	uierrors.BadRequestFor(errSelfSuspend),
	uierrors.BadRequestFor(errSelfDelete),
}

func idParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, uierrors.CodeBadRequest, "Invalid ID.")
		return primitive.NilObjectID, false
	}
	return id, true
}
