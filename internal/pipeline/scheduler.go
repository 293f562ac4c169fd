package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

const initialBackoff = 200 * time.Millisecond

// IngestRunner runs one ingest.
type IngestRunner interface {
	Ingest(ctx context.Context, maxRecords int) (IngestResult, error)
}

// Scheduler triggers ingests on a fixed interval.
type Scheduler struct {
	runner     IngestRunner
	interval   time.Duration
	maxRecords int
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewScheduler creates a Scheduler. A nil clock uses real time.
func NewScheduler(runner IngestRunner, interval time.Duration, maxRecords int, clock clockwork.Clock,
	logger *slog.Logger, metrics *observability.Metrics,
) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		maxRecords: maxRecords,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run ingests immediately and then once per interval until the context is
// cancelled. After a failed run the next attempt follows an exponential
// backoff (200ms doubling, capped at the interval) instead of a full interval.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "max_records", s.maxRecords)
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := s.interval
		if _, err := s.runner.Ingest(ctx, s.maxRecords); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("scheduler stopping", "reason", ctx.Err())
				return nil
			}
			s.logger.Warn("scheduled ingest failed", "error", err, "kind", domain.ErrorKind(err), "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, s.interval)
		} else {
			backoff = initialBackoff
		}

		if !sleepWithContext(ctx, s.clock, wait) {
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
