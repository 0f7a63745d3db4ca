package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// runLeaseKey is the advisory lock key every collector run contends on.
// Concurrent runs would race ledger and dataset writes for the same dates.
const runLeaseKey int64 = 0x6c6f66696e // "lofin"

// ErrRunActive is returned when another collector run holds the lease.
var ErrRunActive = errors.New("another collector run is active")

// RunLease is a session-scoped postgres advisory lock held for the duration
// of one run.
type RunLease struct {
	conn *sqlx.Conn
}

// AcquireRunLease takes the advisory lock on a dedicated connection, failing
// fast when it is already held.
func AcquireRunLease(ctx context.Context, db *sqlx.DB) (*RunLease, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lease connection: %w", err)
	}

	var acquired bool
	if err := conn.GetContext(ctx, &acquired, "SELECT pg_try_advisory_lock($1)", runLeaseKey); err != nil {
		conn.Close()
		return nil, fmt.Errorf("acquire run lease: %w", err)
	}
	if !acquired {
		conn.Close()
		return nil, ErrRunActive
	}

	return &RunLease{conn: conn}, nil
}

// Release drops the advisory lock and returns the connection to the pool.
func (l *RunLease) Release(ctx context.Context) error {
	defer l.conn.Close()

	var released bool
	if err := l.conn.GetContext(ctx, &released, "SELECT pg_advisory_unlock($1)", runLeaseKey); err != nil {
		return fmt.Errorf("release run lease: %w", err)
	}
	return nil
}
