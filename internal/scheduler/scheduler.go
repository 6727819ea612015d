// Package scheduler runs periodic settlement jobs.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
)

// Job is a scheduled unit of work.
type Job interface {
	Run()
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a scheduler whose jobs survive panics and never overlap with
// their own previous run.
func New() *Scheduler {
	l := cronLogger{}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.SkipIfStillRunning(l), cron.Recover(l)),
	)
	return &Scheduler{cron: c}
}

// Add registers job under name at schedule (standard cron syntax or @every).
func (s *Scheduler) Add(name, schedule string, job Job) error {
	if _, err := s.cron.AddJob(schedule, job); err != nil {
		logger.Log.Errorw("failed to schedule job", "job", name, "schedule", schedule, "error", err)
		return err
	}
	logger.Log.Infow("scheduled job", "job", name, "schedule", schedule)
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()

	logger.Log.Info("stopping scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// cronLogger routes cron messages to the service logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Errorw(msg, append(keysAndValues, "error", err)...)
}
