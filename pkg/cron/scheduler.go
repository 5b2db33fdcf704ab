// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/service"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	svc    *service.Service
	logger *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(svc *service.Service, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:   c,
		svc:    svc,
		logger: logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Mismatch sweep: re-run quantity repair over the mismatched archive
	// nightly at 2:00 AM.
	_, err := s.cron.AddFunc("0 2 * * *", s.sweepMismatched)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the mismatch sweep (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.sweepMismatched()
}

func (s *Scheduler) sweepMismatched() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("starting nightly mismatch sweep")

	resolved, err := s.svc.SweepMismatched(ctx)
	if err != nil {
		s.logger.Error("mismatch sweep failed", slog.Any("error", err))
		return
	}
	s.logger.Info("nightly mismatch sweep done", slog.Int("resolved", resolved))
}
