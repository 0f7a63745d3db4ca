package lofin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lofin_collector/internal/config"
)

// Retryer re-runs an operation on transient failure with a fixed delay
// between attempts. Non-transient failures surface immediately.
type Retryer struct {
	maxAttempts int
	delay       time.Duration
	logger      *slog.Logger
}

func NewRetryer(cfg config.RetryConfig, logger *slog.Logger) *Retryer {
	return &Retryer{
		maxAttempts: cfg.MaxAttempts,
		delay:       cfg.Delay,
		logger:      logger.With("component", "retry"),
	}
}

// Do invokes op up to maxAttempts times. The returned error is either the
// operation's own non-transient error or ErrRetryExhausted wrapping the last
// transient one.
func (r *Retryer) Do(ctx context.Context, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 {
				r.logger.Info("request succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if !retryable(err) {
			return err
		}
		lastErr = err

		if attempt >= r.maxAttempts {
			break
		}

		r.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"delay", r.delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay):
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, r.maxAttempts, lastErr)
}
