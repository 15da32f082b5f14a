package maintenance

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs jobs on cron specs. A run is skipped while the
// previous run of the same job is still in progress.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// NewCronScheduler accepts standard five-field specs and descriptors such as "@hourly".
func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		ctx:  context.Background(),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	if _, err := c.cron.AddFunc(spec, c.wrap(job, spec)); err != nil {
		slog.Error("schedule job failed", "job", job.Name(), "spec", spec, "error", err)
		return err
	}
	slog.Info("job scheduled", "job", job.Name(), "spec", spec)
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (c *CronScheduler) Run(ctx context.Context) {
	c.ctx = ctx
	c.cron.Start()
	<-ctx.Done()
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) wrap(job Job, spec string) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			slog.Info("job skipped: still running", "job", job.Name(), "spec", spec)
			return
		}
		defer running.Store(false)

		start := time.Now()
		if err := job.Run(c.ctx); err != nil {
			slog.Error("job failed", "job", job.Name(), "error", err, "duration", time.Since(start))
			return
		}
		slog.Info("job finished", "job", job.Name(), "duration", time.Since(start))
	}
}
