package schedule

import "context"

// Job is a unit of recurring work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on a cron expression until stopped.
type Scheduler interface {
	Register(spec string, job Job) error
	Start()
	Stop(ctx context.Context) error
}
