package scheduler

import (
	"fmt"

	"fleet-backoffice/internal/jobs"
	"fleet-backoffice/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler registers the jobs in the configured timezone with seconds
// precision
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(jobRunner.Config().Location()),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	// Monthly accountant export
	if _, err := s.cron.AddFunc(cfg.AccountantExport, s.jobs.AccountantExport); err != nil {
		return fmt.Errorf("failed to register %s job with spec %q: %w", jobs.AccountantExportJob, cfg.AccountantExport, err)
	}

	logger.Info("All cron jobs registered successfully", "accountant_export", cfg.AccountantExport, "timezone", cfg.Timezone)
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}
