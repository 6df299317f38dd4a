// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"finflow-ledger/internal/service"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 10 * time.Minute

// Config holds the cron expressions of the jobs (standard 5-field syntax, UTC).
type Config struct {
	SnapshotSchedule     string
	PriceRefreshSchedule string
}

// Jobs are the periodic units of work.
type Jobs struct {
	snapshots service.SnapshotService
	prices    service.PriceService
	logger    *slog.Logger
}

// NewJobs creates the job set.
func NewJobs(snapshots service.SnapshotService, prices service.PriceService, logger *slog.Logger) *Jobs {
	return &Jobs{snapshots: snapshots, prices: prices, logger: logger}
}

// TakeDailySnapshots records today's balances for every user.
func (j *Jobs) TakeDailySnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	j.logger.Info("starting daily snapshot job")
	summary, err := j.snapshots.RunDaily(ctx)
	if err != nil {
		j.logger.Error("daily snapshot job failed", "error", err, "created", summary.Created, "skipped", summary.Skipped, "failed", summary.Failed)
		return
	}
	j.logger.Info("daily snapshot job finished",
		"date", summary.Date.Format(time.DateOnly),
		"created", summary.Created,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
}

// RefreshPrices advances the simulated price feed.
func (j *Jobs) RefreshPrices() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := j.prices.RefreshPrices(ctx); err != nil {
		j.logger.Error("price refresh job failed", "error", err)
	}
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// scheduleDisabled turns a job off when used as its schedule.
const scheduleDisabled = "off"

// Start registers the jobs and starts the cron scheduler. An invalid expression is an error
// and nothing is started. Jobs with an empty or "off" schedule are not registered.
func (s *Scheduler) Start() error {
	entries := []struct {
		name     string
		schedule string
		fn       func()
	}{
		{"daily snapshot", s.config.SnapshotSchedule, s.jobs.TakeDailySnapshots},
		{"price refresh", s.config.PriceRefreshSchedule, s.jobs.RefreshPrices},
	}
	for _, e := range entries {
		if e.schedule == "" || strings.EqualFold(e.schedule, scheduleDisabled) {
			s.logger.Info("job disabled", "job", e.name)
			continue
		}
		if _, err := s.cron.AddFunc(e.schedule, e.fn); err != nil {
			return fmt.Errorf("failed to schedule %s job %q: %w", e.name, e.schedule, err)
		}
		s.logger.Info("scheduled job", "job", e.name, "schedule", e.schedule)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
