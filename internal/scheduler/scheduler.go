package scheduler

import (
	"context"
	"log/slog"
	"time"

	"lofin_collector/internal/domain"
)

// Retrier re-collects incomplete dates in a range.
type Retrier interface {
	RetryIncomplete(ctx context.Context, r domain.DateRange) (*domain.RunSummary, error)
}

// Scheduler periodically re-runs incomplete-date collection. Upstream data
// for recent dates trickles in over days, so watching a range slowly fills
// the ledger.
type Scheduler struct {
	retrier  Retrier
	dates    domain.DateRange
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(retrier Retrier, dates domain.DateRange, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		retrier:  retrier,
		dates:    dates,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start runs one pass immediately, then one per tick until the context ends.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runPass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	summary, err := s.retrier.RetryIncomplete(ctx, s.dates)
	if err != nil {
		s.logger.Error("retry pass failed", "error", err)
		return
	}
	if summary.Planned == 0 {
		s.logger.Info("no incomplete dates remaining")
	}
}
