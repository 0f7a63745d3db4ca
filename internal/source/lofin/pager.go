package lofin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lofin_collector/internal/domain"
)

// PageClient is the single-page fetch surface the pager drains.
type PageClient interface {
	FetchPage(ctx context.Context, date domain.TargetDate, page int) (*PageResult, error)
	PageSize() int
}

// Pager drains every page for one target date into a dataset.
type Pager struct {
	client    PageClient
	retry     *Retryer
	pageDelay time.Duration
	logger    *slog.Logger
}

func NewPager(client PageClient, retry *Retryer, pageDelay time.Duration, logger *slog.Logger) *Pager {
	return &Pager{
		client:    client,
		retry:     retry,
		pageDelay: pageDelay,
		logger:    logger.With("component", "pager"),
	}
}

// FetchAll requests pages starting at 1 until the server signals the end of
// data, appending records in server-delivered order. It returns no partial
// dataset on failure.
func (p *Pager) FetchAll(ctx context.Context, date domain.TargetDate) (*domain.Dataset, error) {
	ds := &domain.Dataset{Date: date, TotalExpected: -1}

	var prevFirst, prevLast string

	for page := 1; ; page++ {
		if page > 1 && p.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.pageDelay):
			}
		}

		var res *PageResult
		err := p.retry.Do(ctx, func() error {
			r, err := p.client.FetchPage(ctx, date, page)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fetch page %d for %s: %w", page, date, err)
		}

		if res.Total >= 0 && ds.TotalExpected < 0 {
			ds.TotalExpected = res.Total
			p.logger.Debug("total records announced", "date", date.String(), "total", res.Total)
		}

		if len(res.Records) == 0 {
			if res.More != nil && *res.More {
				return nil, fmt.Errorf("%w: page %d for %s empty but server reports more data", ErrDataAnomaly, page, date)
			}
			break
		}

		first := string(res.Records[0])
		last := string(res.Records[len(res.Records)-1])
		if page > 1 && first == prevFirst && last == prevLast {
			return nil, fmt.Errorf("%w: page %d for %s repeats the previous page", ErrDataAnomaly, page, date)
		}
		prevFirst, prevLast = first, last

		ds.Records = append(ds.Records, res.Records...)

		p.logger.Debug("accumulated page",
			"date", date.String(),
			"page", page,
			"records", len(res.Records),
			"collected", len(ds.Records),
		)

		if !p.hasMore(res, len(ds.Records), ds.TotalExpected) {
			break
		}
	}

	return ds, nil
}

// hasMore decides whether another page remains. The server's explicit flag
// wins; the total-count comparison is the fallback; with neither, a page
// shorter than the page size ends the loop.
func (p *Pager) hasMore(res *PageResult, collected, total int) bool {
	if res.More != nil {
		return *res.More
	}
	if total >= 0 {
		return collected < total
	}
	return len(res.Records) >= p.client.PageSize()
}
