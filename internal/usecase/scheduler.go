package usecase

import (
	"context"
	"log/slog"
	"time"

	"TickerRadar/internal/ports"
)

// Scheduler wires the cron driver with the recurring jobs.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	prices   *PriceUpdater
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, prices *PriceUpdater, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, prices: prices, logger: logger}
}

// Start registers the ingest and price jobs and starts the driver.
func (s *Scheduler) Start(ctx context.Context, ingestSpec, pricesSpec string) error {
	if s.driver == nil {
		return nil
	}

	if s.pipeline != nil && ingestSpec != "" {
		job := func(trigger time.Time) {
			if _, err := s.pipeline.Run(ctx, trigger); err != nil {
				s.error("scheduled ingest run failed", "error", err)
			}
		}
		if err := s.driver.AddJob(ingestSpec, job); err != nil {
			return err
		}
	}

	if s.prices != nil && pricesSpec != "" {
		job := func(time.Time) {
			if err := s.prices.Run(ctx); err != nil {
				s.error("scheduled price update failed", "error", err)
			}
		}
		if err := s.driver.AddJob(pricesSpec, job); err != nil {
			return err
		}
	}

	s.driver.Start()
	return nil
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

func (s *Scheduler) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
