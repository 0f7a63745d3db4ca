package domain

import (
	"encoding/json"
	"time"
)

// CollectionStatus is the durable per-date collection state.
type CollectionStatus string

const (
	StatusNotStarted CollectionStatus = "not_started"
	StatusInProgress CollectionStatus = "in_progress"
	StatusComplete   CollectionStatus = "complete"
	StatusIncomplete CollectionStatus = "incomplete"
	StatusFailed     CollectionStatus = "failed"
)

// LedgerEntry is one row of the collection ledger.
type LedgerEntry struct {
	ExecDate      time.Time        `db:"exec_date"`
	Status        CollectionStatus `db:"status"`
	RecordCount   int              `db:"record_count"`
	TotalExpected int              `db:"total_expected"`
	Attempts      int              `db:"attempts"`
	UpdatedAt     time.Time        `db:"updated_at"`
}

// Date returns the entry's target date.
func (e LedgerEntry) Date() TargetDate {
	return NewTargetDate(e.ExecDate)
}

// Dataset holds everything the pager drained for one date. Records are kept
// as raw JSON; the collector never interprets their fields.
type Dataset struct {
	Date    TargetDate
	Records []json.RawMessage

	// TotalExpected is the server-reported total, or -1 when the server
	// never announced one.
	TotalExpected int
}

// Complete reports whether the dataset matches the server-reported total.
// With no total to compare against the fetched set is taken as complete.
func (d *Dataset) Complete() bool {
	return d.TotalExpected < 0 || len(d.Records) >= d.TotalExpected
}

// RunSummary aggregates per-date outcomes of one collector run.
type RunSummary struct {
	Planned      int
	Completed    int
	Incomplete   int
	Failed       int
	Skipped      int
	TotalRecords int
	Duration     time.Duration
}

// Succeeded reports whether at least one date completed. A run where zero
// dates succeed warrants a non-zero exit.
func (s *RunSummary) Succeeded() bool {
	return s.Completed > 0
}
