// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, then closes the broker, the hub and the
// MongoDB client in that order. Closing the hub ends every open alert stream.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if bg := deps.bg; bg != nil {
		for _, w := range bg.retention {
			w.Stop()
		}
		if bg.loginLimiter != nil {
			bg.loginLimiter.Stop()
		}
		if bg.sosLimiter != nil {
			bg.sosLimiter.Stop()
		}
	}

	if deps.Broker != nil {
		if err := deps.Broker.Close(); err != nil {
			logger.Warn("broker close failed", zap.String("kind", deps.Broker.Name()), zap.Error(err))
		}
	}
	if deps.Hub != nil {
		deps.Hub.Close()
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
