package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs chan struct{}
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	select {
	case j.runs <- struct{}{}:
	default:
	}
	return j.err
}

func TestCron_RejectsInvalidSpec(t *testing.T) {
	c := NewCron(time.Second, nil)
	err := c.Register("every morning", &countingJob{})
	assert.Error(t, err)
}

func TestCron_RequiresSecondsField(t *testing.T) {
	c := NewCron(time.Second, nil)
	assert.Error(t, c.Register("0 8 * * *", &countingJob{}))
	assert.NoError(t, c.Register("0 0 8 * * *", &countingJob{}))
}

func TestCron_RunsJobs(t *testing.T) {
	job := &countingJob{runs: make(chan struct{}, 1), err: errors.New("ignored")}
	c := NewCron(time.Second, nil)
	require.NoError(t, c.Register("* * * * * *", job))

	c.Start()
	select {
	case <-job.runs:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Stop(ctx))
}
