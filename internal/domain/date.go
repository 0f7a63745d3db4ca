package domain

import (
	"fmt"
	"time"
)

// TargetDate is one calendar date selected for collection. Immutable once
// planned.
type TargetDate struct {
	Year     int
	Month    time.Month
	Day      int
	MonthEnd bool
}

// NewTargetDate builds a TargetDate from a time value, truncating to the day.
func NewTargetDate(t time.Time) TargetDate {
	return TargetDate{
		Year:     t.Year(),
		Month:    t.Month(),
		Day:      t.Day(),
		MonthEnd: t.Day() == lastDayOfMonth(t.Year(), t.Month()),
	}
}

// ParseTargetDate parses a YYYY-MM-DD string.
func ParseTargetDate(s string) (TargetDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return TargetDate{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return NewTargetDate(t), nil
}

// Time returns the date at midnight UTC.
func (d TargetDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as YYYY-MM-DD.
func (d TargetDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Compact formats the date as YYYYMMDD, the form the API expects in the
// exe_ymd parameter.
func (d TargetDate) Compact() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

func (d TargetDate) Before(other TargetDate) bool {
	return d.Time().Before(other.Time())
}

// lastDayOfMonth computes the final day of a month via time.Date
// normalization: day zero of the following month.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
