// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"

	"github.com/dalemusser/fypcollab/internal/app/collab"
	"go.uber.org/zap"
)

// Job is a unit of background work run on a cron schedule.
type Job struct {
	Name     string
	Schedule string // robfig/cron spec, e.g. "@every 1h" or "0 3 * * *"
	Run      func(ctx context.Context) error
}

// ReconcileBackRefsJob creates a job that rebuilds users' project
// back-references from the projects collection.
func ReconcileBackRefsJob(svc *collab.Service, logger *zap.Logger, schedule string) Job {
	return Job{
		Name:     "reconcile-backrefs",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			res, err := svc.ReconcileBackRefs(ctx)
			if err != nil {
				return err
			}
			if res.UsersFixed > 0 {
				logger.Warn("repaired drifted back-references",
					zap.Int("users_checked", res.UsersChecked),
					zap.Int("users_fixed", res.UsersFixed))
			} else {
				logger.Debug("back-references consistent", zap.Int("users_checked", res.UsersChecked))
			}
			return nil
		},
	}
}
