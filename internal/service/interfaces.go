package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"lofin_collector/internal/domain"
)

// Fetcher drains every page of one target date into a dataset.
type Fetcher interface {
	FetchAll(ctx context.Context, date domain.TargetDate) (*domain.Dataset, error)
}

// LedgerStore is the durable per-date collection bookkeeping.
type LedgerStore interface {
	Record(ctx context.Context, date domain.TargetDate, status domain.CollectionStatus, count, total int) error
	StatusOf(ctx context.Context, date domain.TargetDate) (domain.CollectionStatus, error)
	IncompleteDates(ctx context.Context, candidates []domain.TargetDate) ([]domain.TargetDate, error)
}

// DatasetStore persists collected records, replacing a date atomically.
type DatasetStore interface {
	Replace(ctx context.Context, ds *domain.Dataset) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Exporter hands completed datasets to downstream analysis consumers. Export
// failures never fail a run.
type Exporter interface {
	Export(ctx context.Context, ds *domain.Dataset) error
	Close() error
}
