package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Spec builds the cron expression for a daily run at hour:minute.
func Spec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// Start creates a scheduler in the given timezone and registers job to run
// daily at hour:minute. The returned scheduler is owned by the caller, who
// must Stop it on shutdown.
func Start(hour, minute int, timezone string, job func()) (*cron.Cron, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule: invalid timezone %q: %w", timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(Spec(hour, minute), job); err != nil {
		return nil, fmt.Errorf("schedule: failed to register daily job: %w", err)
	}
	c.Start()
	return c, nil
}
