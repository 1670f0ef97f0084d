package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"TickerRadar/internal/ports"
)

// CronScheduler adapts robfig/cron to the scheduler port.
type CronScheduler struct {
	cron *cron.Cron
	loc  *time.Location
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler running in the given timezone.
func NewCronScheduler(loc *time.Location) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{
		cron: cron.New(cron.WithLocation(loc)),
		loc:  loc,
	}
}

// AddJob registers a job under a standard 5-field cron expression.
func (c *CronScheduler) AddJob(spec string, job func(time.Time)) error {
	_, err := c.cron.AddFunc(spec, func() {
		job(time.Now().In(c.loc))
	})
	return err
}

// Start begins dispatching in a background goroutine.
func (c *CronScheduler) Start() {
	c.cron.Start()
}

// Stop halts dispatching and waits for running jobs, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
