// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/indexes"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/notify"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/timeouts"
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and the notification broker.
//
// The broker is connected here rather than in Startup because, like the
// database, the app cannot serve alerts without it: a bad Redis or NATS
// address should stop the process before it starts listening.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize),
		zap.Uint64("min_pool_size", appCfg.MongoMinPoolSize))

	hub := notify.NewHub(notify.DefaultBuffer, logger)
	broker, err := notify.New(ctx, appCfg.notifyConfig(), hub, logger)
	if err != nil {
		hub.Close()
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("notify broker: %w", err)
	}
	logger.Info("alert broker ready", zap.String("kind", broker.Name()))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Hub:           hub,
		Broker:        broker,
		bg:            &background{},
	}, nil
}

// EnsureSchema creates collections with their validators, then the indexes.
// Index creation is idempotent, so this runs on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("schema ready")
	return nil
}
