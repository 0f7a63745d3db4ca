package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lofin_collector/internal/config"
	"lofin_collector/internal/domain"
	"lofin_collector/internal/source/lofin"
)

// Collector drives the planner output through fetch, persist and ledger
// bookkeeping, one date at a time.
type Collector struct {
	fetcher  Fetcher
	ledger   LedgerStore
	datasets DatasetStore
	tx       TransactionManager
	exporter Exporter
	logger   *slog.Logger
	cfg      config.CollectionConfig
}

// NewCollector wires the orchestrator. exporter may be nil when export is
// disabled.
func NewCollector(
	fetcher Fetcher,
	ledger LedgerStore,
	datasets DatasetStore,
	tx TransactionManager,
	exporter Exporter,
	logger *slog.Logger,
	cfg config.CollectionConfig,
) *Collector {
	return &Collector{
		fetcher:  fetcher,
		ledger:   ledger,
		datasets: datasets,
		tx:       tx,
		exporter: exporter,
		logger:   logger.With("component", "collector"),
		cfg:      cfg,
	}
}

// SetRefetchCompleted overrides the configured skip of already complete
// dates, for one-off refetch runs.
func (c *Collector) SetRefetchCompleted(v bool) {
	c.cfg.RefetchCompleted = v
}

// Run collects every date in order. A single date's fetch failure is recorded
// and skipped over; storage failures abort the run. Cancellation is honored
// between dates, never mid-date.
func (c *Collector) Run(ctx context.Context, dates []domain.TargetDate) (*domain.RunSummary, error) {
	start := time.Now()
	summary := &domain.RunSummary{Planned: len(dates)}

	c.logger.Info("starting run", "dates", len(dates), "refetch_completed", c.cfg.RefetchCompleted)

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			c.logger.Warn("run interrupted, stopping before next date", "date", date.String())
			break
		}

		if !c.cfg.RefetchCompleted {
			status, err := c.ledger.StatusOf(ctx, date)
			if err != nil {
				return summary, fmt.Errorf("ledger status for %s: %w", date, err)
			}
			if status == domain.StatusComplete {
				summary.Skipped++
				c.logger.Debug("date already complete, skipping", "date", date.String())
				continue
			}
		}

		if err := c.collectDate(ctx, date, summary); err != nil {
			return summary, err
		}
	}

	summary.Duration = time.Since(start)

	c.logger.Info("run completed",
		"planned", summary.Planned,
		"complete", summary.Completed,
		"incomplete", summary.Incomplete,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"total_records", summary.TotalRecords,
		"duration", summary.Duration,
	)

	return summary, nil
}

// RetryIncomplete re-collects the dates in the range whose ledger status is
// not complete: never started, incomplete or failed.
func (c *Collector) RetryIncomplete(ctx context.Context, r domain.DateRange) (*domain.RunSummary, error) {
	candidates, err := r.Dates()
	if err != nil {
		return nil, err
	}

	dates, err := c.ledger.IncompleteDates(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("query incomplete dates: %w", err)
	}

	c.logger.Info("retrying incomplete dates", "candidates", len(candidates), "to_retry", len(dates))

	return c.Run(ctx, dates)
}

// collectDate runs the full fetch/persist/record cycle for one date. The
// returned error is non-nil only for storage failures, which are fatal to
// the run.
func (c *Collector) collectDate(ctx context.Context, date domain.TargetDate, summary *domain.RunSummary) error {
	log := c.logger.With("date", date.String())

	if err := c.ledger.Record(ctx, date, domain.StatusInProgress, 0, -1); err != nil {
		return fmt.Errorf("mark in progress for %s: %w", date, err)
	}

	ds, err := c.fetcher.FetchAll(ctx, date)
	if err != nil {
		return c.recordFetchFailure(ctx, date, err, summary)
	}

	status := domain.StatusComplete
	if !ds.Complete() {
		// The server reported a total we never reached; keep what it
		// returned but leave the date eligible for retry.
		status = domain.StatusIncomplete
	}

	err = c.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := c.datasets.Replace(txCtx, ds); err != nil {
			return fmt.Errorf("replace dataset: %w", err)
		}
		return c.ledger.Record(txCtx, date, status, len(ds.Records), ds.TotalExpected)
	})
	if err != nil {
		return fmt.Errorf("persist %s: %w", date, err)
	}

	if status == domain.StatusComplete {
		summary.Completed++
	} else {
		summary.Incomplete++
	}
	summary.TotalRecords += len(ds.Records)

	log.Info("date collected",
		"status", status,
		"records", len(ds.Records),
		"expected", ds.TotalExpected,
	)

	if c.exporter != nil && status == domain.StatusComplete {
		if err := c.exporter.Export(ctx, ds); err != nil {
			log.Warn("dataset export failed", "error", err)
		}
	}

	return nil
}

// recordFetchFailure maps a fetch error to a ledger status. Partial records
// are discarded rather than persisted. Only the ledger write itself can fail
// the run here.
func (c *Collector) recordFetchFailure(ctx context.Context, date domain.TargetDate, fetchErr error, summary *domain.RunSummary) error {
	status := domain.StatusFailed
	if errors.Is(fetchErr, lofin.ErrRetryExhausted) ||
		errors.Is(fetchErr, context.Canceled) ||
		errors.Is(fetchErr, context.DeadlineExceeded) {
		status = domain.StatusIncomplete
	}

	// The run context may already be cancelled; the bookkeeping write still
	// has to land.
	recordCtx := context.WithoutCancel(ctx)
	if err := c.ledger.Record(recordCtx, date, status, 0, -1); err != nil {
		return fmt.Errorf("record failure for %s: %w", date, err)
	}

	if status == domain.StatusFailed {
		summary.Failed++
	} else {
		summary.Incomplete++
	}

	c.logger.Error("date collection failed",
		"date", date.String(),
		"status", status,
		"error", fetchErr,
	)

	return nil
}
