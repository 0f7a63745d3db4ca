package postgres

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"lofin_collector/internal/domain"
)

// insertChunkSize bounds the rows per multi-value INSERT; four parameters
// per row keeps this well under the postgres placeholder limit.
const insertChunkSize = 200

// DatasetStore persists the raw expenditure records for a date.
type DatasetStore struct {
	db *sqlx.DB
}

func NewDatasetStore(db *sqlx.DB) *DatasetStore {
	return &DatasetStore{db: db}
}

// Replace swaps the stored dataset for a date: delete the prior rows, insert
// the new ones. Run it inside a TransactionManager callback so the swap and
// the accompanying ledger write commit together or not at all.
func (s *DatasetStore) Replace(ctx context.Context, ds *domain.Dataset) error {
	exec := GetExecutor(ctx, s.db)

	_, err := exec.ExecContext(ctx,
		"DELETE FROM expenditures WHERE exec_date = $1", ds.Date.Time())
	if err != nil {
		return err
	}

	for start := 0; start < len(ds.Records); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(ds.Records) {
			end = len(ds.Records)
		}
		if err := s.insertChunk(ctx, exec, ds, ds.Records[start:end]); err != nil {
			return err
		}
	}

	return nil
}

func (s *DatasetStore) insertChunk(ctx context.Context, exec sqlx.ExtContext, ds *domain.Dataset, chunk []json.RawMessage) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO expenditures (exec_date, fiscal_year, fields, collected_at) VALUES ")

	args := make([]interface{}, 0, len(chunk)*2+2)
	args = append(args, ds.Date.Time(), ds.Date.Year)

	for i, rec := range chunk {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1, $2, $")
		sb.WriteString(strconv.Itoa(i + 3))
		sb.WriteString(", now())")
		args = append(args, []byte(rec))
	}

	_, err := exec.ExecContext(ctx, sb.String(), args...)
	return err
}

// Count returns the number of stored records for a date.
func (s *DatasetStore) Count(ctx context.Context, date domain.TargetDate) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		"SELECT COUNT(*) FROM expenditures WHERE exec_date = $1", date.Time())
	return count, err
}
