package starcache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// StartJanitor sweeps c on the given cron schedule (for example "@every 5m")
// until ctx is done. It returns once the schedule is installed.
func StartJanitor(ctx context.Context, c *Cache, schedule string, logger *slog.Logger) error {
	sched := cron.New()
	if _, err := sched.AddFunc(schedule, func() {
		if removed := c.Sweep(); removed > 0 {
			logger.Debug("star cache swept", "removed", removed, "remaining", c.Len())
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule star cache sweep %q: %w", schedule, err)
	}

	sched.Start()
	logger.Info("star cache janitor started", "schedule", schedule)

	go func() {
		<-ctx.Done()
		<-sched.Stop().Done()
		logger.Info("star cache janitor stopped")
	}()
	return nil
}
