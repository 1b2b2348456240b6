package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"carbooking/internal/app/schedule"
)

// Cron runs schedule jobs with six-field (seconds) expressions in UTC.
type Cron struct {
	cron       *cron.Cron
	jobTimeout time.Duration
	logger     *slog.Logger
}

func NewCron(jobTimeout time.Duration, logger *slog.Logger) *Cron {
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Cron{cron: c, jobTimeout: jobTimeout, logger: logger}
}

func (c *Cron) Register(spec string, job schedule.Job) error {
	_, err := c.cron.AddFunc(spec, func() { c.run(job) })
	if err != nil {
		return fmt.Errorf("scheduler: register %s: %w", job.Name(), err)
	}
	return nil
}

func (c *Cron) run(job schedule.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), c.jobTimeout)
	defer cancel()
	start := time.Now()
	err := job.Run(ctx)
	if c.logger == nil {
		return
	}
	if err != nil {
		c.logger.Error("scheduled job failed", "job", job.Name(), "duration", time.Since(start), "error", err)
		return
	}
	c.logger.Info("scheduled job finished", "job", job.Name(), "duration", time.Since(start))
}

func (c *Cron) Start() {
	c.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (c *Cron) Stop(ctx context.Context) error {
	done := c.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ schedule.Scheduler = (*Cron)(nil)
