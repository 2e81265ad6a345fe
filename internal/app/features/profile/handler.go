// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/abhi-jithb/PreshnamSolver/internal/app/features/errors"
	userstore "github.com/abhi-jithb/PreshnamSolver/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all user profile handlers.
type Handler struct {
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  userstore.New(db),
		Log:    logger,
		ErrLog: errLog,
	}
}
