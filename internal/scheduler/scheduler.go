// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultJobTimeout bounds a single job run when no timeout is configured.
const DefaultJobTimeout = 5 * time.Minute

// Job represents a scheduled job. Run must honor ctx cancellation: the
// scheduler cancels it when the per-run timeout elapses.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	log     zerolog.Logger
}

// New creates a scheduler whose job runs are bounded by timeout
func New(log zerolog.Logger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		timeout: timeout,
		log:     log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule.
// Schedule examples:
//   - "0 */5 * * * *"   - Every 5 minutes
//   - "@hourly"         - Every hour
//   - "0 0 7 * * MON"   - 7 AM Mondays
//   - "@every 30s"      - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately, outside its schedule, under the same
// per-run timeout as scheduled runs.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return job.Run(ctx)
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	s.log.Debug().Str("job", job.Name()).Msg("Running job")

	if err := job.Run(ctx); err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Dur("elapsed", time.Since(started)).
			Msg("Job failed")
		return
	}

	s.log.Debug().
		Str("job", job.Name()).
		Dur("elapsed", time.Since(started)).
		Msg("Job completed")
}
