package tasks

import (
	"context"
	"fmt"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/crawler"
	"github.com/brandpulse/brandpulse/internal/mention"
	"github.com/brandpulse/brandpulse/internal/scheduler"
)

// CrawlTaskID prefixes the per-slot crawl task ids.
const CrawlTaskID = "crawl-batch"

// RegisterCrawlTasks registers one crawl batch task per configured time of
// day (08:00, 13:00 and 20:00 by default). Each slot is independent: the
// batch itself never returns an error, so a bad day at one slot cannot
// unschedule another.
func RegisterCrawlTasks(sched *scheduler.Scheduler, orch *crawler.Orchestrator, cfg *config.CrawlConfig) error {
	platforms := make([]mention.Platform, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		platform := mention.Platform(p)
		if !platform.Valid() {
			return fmt.Errorf("unknown crawl platform %q", p)
		}
		platforms = append(platforms, platform)
	}

	for _, timeOfDay := range cfg.Times {
		cronExpr, err := scheduler.CronAt(timeOfDay)
		if err != nil {
			return err
		}

		err = sched.RegisterTask(scheduler.TaskConfig{
			ID:   fmt.Sprintf("%s-%s", CrawlTaskID, timeOfDay),
			Name: fmt.Sprintf("Crawl batch (%s)", timeOfDay),
			Cron: cronExpr,
			Func: func(ctx context.Context) error {
				orch.RunBatch(ctx, platforms)
				return nil
			},
		})
		if err != nil {
			return fmt.Errorf("register crawl task for %s: %w", timeOfDay, err)
		}
	}

	return nil
}
