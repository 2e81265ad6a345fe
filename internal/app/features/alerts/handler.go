// internal/app/features/alerts/handler.go
package alerts

import (
	"net/http"
	"time"

	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/services/alerting"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/notify"
	"go.uber.org/zap"
)

// DefaultPingInterval is used when no ping interval is configured.
const DefaultPingInterval = 30 * time.Second

// Handler serves the SOS alert API and the live alert stream.
type Handler struct {
	Alerts       *alerting.Broadcaster
	Hub          *notify.Hub
	PingInterval time.Duration
	ErrLog       *uierrors.ErrorLogger
	Log          *zap.Logger
}

func NewHandler(b *alerting.Broadcaster, hub *notify.Hub, pingInterval time.Duration, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	return &Handler{
		Alerts:       b,
		Hub:          hub,
		PingInterval: pingInterval,
		ErrLog:       errLog,
		Log:          logger,
	}
}

var alertErrors = []uierrors.Mapping{
	uierrors.Conflict(alerting.ErrNoFriends),
	uierrors.Conflict(alerting.ErrAlertAlreadyActive),
	uierrors.NotFoundFor(alerting.ErrNotFound),
	uierrors.NotFoundFor(alerting.ErrOwnerNotFound),
	uierrors.ForbiddenFor(alerting.ErrForbidden),
	{Err: alerting.ErrRateLimited, Status: http.StatusTooManyRequests, Code: uierrors.CodeRateLimited},
	{Err: alerting.ErrInputTooLong, Status: http.StatusUnprocessableEntity, Code: uierrors.CodeValidation},
}
