package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lofin_collector/internal/domain"
)

// LedgerStore persists per-date collection bookkeeping.
type LedgerStore struct {
	db *sqlx.DB
}

func NewLedgerStore(db *sqlx.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Record upserts the status for a date, overwriting any prior status. The
// attempt counter advances only on terminal statuses, so the in_progress
// marker written at the start of a date does not double-count.
func (s *LedgerStore) Record(ctx context.Context, date domain.TargetDate, status domain.CollectionStatus, count, total int) error {
	bump := 1
	if status == domain.StatusInProgress {
		bump = 0
	}

	query := `
		INSERT INTO collection_ledger (exec_date, status, record_count, total_expected, attempts, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (exec_date) DO UPDATE SET
			status = EXCLUDED.status,
			record_count = EXCLUDED.record_count,
			total_expected = EXCLUDED.total_expected,
			attempts = collection_ledger.attempts + $5,
			updated_at = now()`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		date.Time(), status, count, total, bump)
	return err
}

// StatusOf returns the stored status for a date, defaulting to NotStarted
// when the ledger has no row.
func (s *LedgerStore) StatusOf(ctx context.Context, date domain.TargetDate) (domain.CollectionStatus, error) {
	var status domain.CollectionStatus
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &status,
		"SELECT status FROM collection_ledger WHERE exec_date = $1", date.Time())
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StatusNotStarted, nil
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// IncompleteDates filters candidates down to the dates still needing work:
// those with no ledger row (not started) or a row marked incomplete or
// failed. Order follows ascending date order of the candidates.
func (s *LedgerStore) IncompleteDates(ctx context.Context, candidates []domain.TargetDate) ([]domain.TargetDate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	days := make([]time.Time, len(candidates))
	for i, d := range candidates {
		days[i] = d.Time()
	}

	query := `
		SELECT exec_date, status FROM collection_ledger
		WHERE exec_date = ANY($1)`

	rows, err := GetExecutor(ctx, s.db).QueryContext(ctx, query, pq.Array(days))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]domain.CollectionStatus, len(candidates))
	for rows.Next() {
		var day time.Time
		var status domain.CollectionStatus
		if err := rows.Scan(&day, &status); err != nil {
			return nil, err
		}
		known[domain.NewTargetDate(day).String()] = status
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []domain.TargetDate
	for _, d := range candidates {
		status, ok := known[d.String()]
		if !ok || status == domain.StatusIncomplete || status == domain.StatusFailed {
			out = append(out, d)
		}
	}
	return out, nil
}

// Entries returns all ledger rows in a date span, ascending.
func (s *LedgerStore) Entries(ctx context.Context, from, to domain.TargetDate) ([]domain.LedgerEntry, error) {
	query := `
		SELECT exec_date, status, record_count, total_expected, attempts, updated_at
		FROM collection_ledger
		WHERE exec_date BETWEEN $1 AND $2
		ORDER BY exec_date`

	var entries []domain.LedgerEntry
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &entries, query, from.Time(), to.Time())
	return entries, err
}
