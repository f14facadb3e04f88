// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/fypcollab/internal/app/system/ratelimit"
	"github.com/dalemusser/fypcollab/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Runtime is allocated in ConnectDB and filled by Startup/BuildHandler so
// Shutdown can stop what they started; the hooks receive DBDeps by value.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Runtime       *Runtime
}

// Runtime holds long-lived background components.
type Runtime struct {
	Scheduler    *workers.Scheduler
	LoginLimiter *ratelimit.LoginLimiter
	IPLimiter    *ratelimit.Limiter
}
