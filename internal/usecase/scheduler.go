package usecase

import (
	"context"
	"log/slog"
	"time"

	"ResearchDigest/internal/ports"
)

// Scheduler wires the daily trigger with the pipeline and delivers the
// resulting digest to the output sink.
type Scheduler struct {
	driver          ports.Scheduler
	pipeline        *Pipeline
	sink            ports.Sink
	lookbackDays    int
	persistFeatured bool
	logger          *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring digest job.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, sink ports.Sink, lookbackDays int, persistFeatured bool, logger *slog.Logger) *Scheduler {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	return &Scheduler{
		driver:          driver,
		pipeline:        pipeline,
		sink:            sink,
		lookbackDays:    lookbackDays,
		persistFeatured: persistFeatured,
		logger:          logger,
	}
}

// Start registers the pipeline job with the provided trigger driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled run starting", "trigger", trigger.Format(time.RFC3339))

		run, err := s.pipeline.Run(ctx, RunParams{
			LookbackDays:    s.lookbackDays,
			PersistFeatured: s.persistFeatured,
		})
		if err != nil {
			s.logger.Error("scheduled run rejected", "error", err)
			return
		}

		if !run.Success {
			s.logger.Error("scheduled run failed", "run_id", run.ID, "errors", run.Errors)
			return
		}

		if s.sink == nil || run.Document == "" {
			return
		}

		if err := s.sink.Deliver(ctx, run.Document); err != nil {
			s.logger.Error("digest delivery failed", "run_id", run.ID, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying trigger driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
