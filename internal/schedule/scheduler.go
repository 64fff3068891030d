// Package schedule runs the server's maintenance jobs (note purge,
// image sweep) on cron specs. Overlapping runs of the same job are
// skipped, and an optional jitter staggers jobs that share a spec.
package schedule

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

type jobState struct {
	job     Job
	spec    string
	running atomic.Bool
	runs    atomic.Int64
}

type CronScheduler struct {
	cron   *cron.Cron
	jitter time.Duration
	jobs   []*jobState
	ctx    context.Context
}

type Option func(*CronScheduler)

// WithJitter delays each run by a random amount up to d, so jobs
// sharing one cron spec do not all hit the database at the same instant.
func WithJitter(d time.Duration) Option {
	return func(c *CronScheduler) { c.jitter = d }
}

func NewCronScheduler(opts ...Option) *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	st := &jobState{job: job, spec: spec}
	if _, err := c.cron.AddFunc(spec, func() { c.runJob(st) }); err != nil {
		logutil.GetLogger(context.Background()).Error("schedule job failed",
			zap.String("job", job.Name()), zap.String("spec", spec), zap.Error(err))
		return err
	}
	c.jobs = append(c.jobs, st)
	logutil.GetLogger(context.Background()).Info("job scheduled",
		zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	done := c.cron.Stop()
	<-done.Done()
}

func (c *CronScheduler) runJob(st *jobState) {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("job", st.job.Name()),
		zap.String("spec", st.spec),
	)
	if !st.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: previous run still active")
		return
	}
	defer st.running.Store(false)

	if !c.waitJitter(ctx) {
		return
	}

	run := st.runs.Add(1)
	logger = logger.With(zap.Int64("run", run))
	start := time.Now()
	logger.Info("job started")
	err := st.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
}

// waitJitter sleeps the random stagger delay; false means the scheduler
// context was cancelled while waiting.
func (c *CronScheduler) waitJitter(ctx context.Context) bool {
	if c.jitter <= 0 {
		return true
	}
	delay := rand.N(c.jitter)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
