// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/fypcollab/internal/app/collab"
	"github.com/dalemusser/fypcollab/internal/app/store/audit"
	userstore "github.com/dalemusser/fypcollab/internal/app/store/users"
	"github.com/dalemusser/fypcollab/internal/app/system/auditlog"
	"github.com/dalemusser/fypcollab/internal/app/system/tasks"
	"github.com/dalemusser/fypcollab/internal/app/system/txn"
	"github.com/dalemusser/fypcollab/internal/app/system/workers"
	"github.com/dalemusser/fypcollab/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// jobTimeout bounds a single background job run.
const jobTimeout = 5 * time.Minute

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: the admin
// bootstrap and the background scheduler.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	audits := newAuditLogger(db, appCfg, logger)

	if err := ensureAdmin(ctx, db, appCfg.AdminEmail, appCfg.AdminPassword, audits, logger); err != nil {
		logger.Error("admin bootstrap failed", zap.Error(err))
		return err
	}

	svc := collab.New(db, txn.New(deps.MongoClient, logger), logger)
	sched := workers.NewScheduler(logger, jobTimeout)
	if err := sched.Add(tasks.ReconcileBackRefsJob(svc, logger, appCfg.ReconcileCron)); err != nil {
		return err
	}
	sched.Start()
	deps.Runtime.Scheduler = sched
	return nil
}

func newAuditLogger(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLog,
		Admin: appCfg.AuditLog,
	})
}

// ensureAdmin creates the configured admin account if it does not exist.
// Roles are fixed at registration, so an existing non-admin account with the
// same email is left untouched and reported.
func ensureAdmin(ctx context.Context, db *mongo.Database, email, password string, audits *auditlog.Logger, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	users := userstore.New(db)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Role == models.RoleAdmin:
		logger.Debug("bootstrap admin already present", zap.String("email", existing.Email))
		return nil
	case err == nil:
		logger.Warn("bootstrap admin email belongs to a non-admin account; skipping",
			zap.String("email", existing.Email),
			zap.String("role", string(existing.Role)))
		return nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	created, err := users.Create(ctx, models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Another instance bootstrapped it first.
		return nil
	}
	if err != nil {
		return err
	}

	audits.AdminBootstrapped(ctx, created.ID, created.Email)
	logger.Info("bootstrap admin created", zap.String("email", created.Email))
	return nil
}
