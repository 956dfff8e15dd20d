package tasks

import (
	"context"
	"fmt"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/retention"
	"github.com/brandpulse/brandpulse/internal/scheduler"
)

// RetentionTaskID identifies the nightly retention task.
const RetentionTaskID = "retention-cycle"

// RegisterRetentionTask registers the nightly retention cycle (02:00 by
// default).
func RegisterRetentionTask(sched *scheduler.Scheduler, service *retention.Service, cfg *config.RetentionConfig) error {
	cronExpr, err := scheduler.CronAt(cfg.Time)
	if err != nil {
		return err
	}

	err = sched.RegisterTask(scheduler.TaskConfig{
		ID:   RetentionTaskID,
		Name: "Retention cycle",
		Cron: cronExpr,
		Func: func(ctx context.Context) error {
			_, err := service.RunCycle(ctx)
			return err
		},
	})
	if err != nil {
		return fmt.Errorf("register retention task: %w", err)
	}
	return nil
}
