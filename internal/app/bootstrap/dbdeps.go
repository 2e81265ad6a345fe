// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/abhi-jithb/PreshnamSolver/internal/app/system/notify"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Hub fans events out to this process's stream connections; Broker
	// carries them between processes and feeds Hub.
	Hub    *notify.Hub
	Broker notify.Broker

	// Filled in by Startup, released by Shutdown.
	bg *background
}
