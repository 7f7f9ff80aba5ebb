package app

import (
	"context"
	"time"

	pkgcron "github.com/askspace/core/internal/pkg/cron"
	pkgredis "github.com/askspace/core/internal/pkg/redis"
	"github.com/askspace/core/internal/pkg/session"
	"github.com/askspace/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const finishedTaskRetention = 7 * 24 * time.Hour

func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, rc *pkgredis.Client, logger *zap.Logger) {
	log := logger.Named("cron")
	tasks := taskqueue.NewService(rc)

	sched.Register(pkgcron.Job{
		Name:        "session-sweep",
		Description: "Delete expired and revoked sessions",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := session.SweepExpired(db)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info("swept expired sessions", zap.Int64("count", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "task-cleanup",
		Description: "Remove finished background tasks past retention",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := tasks.DeleteFinished(ctx, time.Now().Add(-finishedTaskRetention))
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info("cleaned finished tasks", zap.Int("count", n))
			}
			return nil
		},
	})
}
