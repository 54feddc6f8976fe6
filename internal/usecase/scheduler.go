package usecase

import (
	"context"
	"log/slog"
	"time"

	"ArtistScout/internal/ports"
)

// SessionScheduler runs configured discovery queries on a recurring
// schedule. Sessions are serialized by the orchestrator itself; a tick
// that arrives mid-session is skipped rather than queued.
type SessionScheduler struct {
	driver        ports.Scheduler
	orchestrator  *Orchestrator
	queries       []string
	maxCandidates int
	logger        *slog.Logger
}

// NewSessionScheduler wires the cron-like driver with the orchestrator.
func NewSessionScheduler(driver ports.Scheduler, orchestrator *Orchestrator, queries []string, maxCandidates int, logger *slog.Logger) *SessionScheduler {
	return &SessionScheduler{
		driver:        driver,
		orchestrator:  orchestrator,
		queries:       queries,
		maxCandidates: maxCandidates,
		logger:        logger,
	}
}

// Start registers the discovery job with the provided scheduler.
func (s *SessionScheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.orchestrator == nil {
		return nil
	}

	job := func(trigger time.Time) {
		for _, query := range s.queries {
			if _, err := s.orchestrator.RunSession(ctx, query, s.maxCandidates); err != nil {
				if s.logger != nil {
					s.logger.Error("scheduled session failed", "query", query, "trigger", trigger, "error", err)
				}
			}
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *SessionScheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
