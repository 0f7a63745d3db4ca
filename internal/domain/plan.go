package domain

import (
	"fmt"
	"time"
)

// DateRange describes the span of months a run should cover and whether every
// day or only each month's last day is collected.
type DateRange struct {
	StartYear  int
	StartMonth time.Month
	EndYear    int
	EndMonth   time.Month
	AllDays    bool
}

func (r DateRange) Validate() error {
	if r.StartMonth < time.January || r.StartMonth > time.December {
		return fmt.Errorf("invalid start month %d", r.StartMonth)
	}
	if r.EndMonth < time.January || r.EndMonth > time.December {
		return fmt.Errorf("invalid end month %d", r.EndMonth)
	}
	if r.StartYear < 1 || r.EndYear < 1 {
		return fmt.Errorf("invalid year range %d-%d", r.StartYear, r.EndYear)
	}
	start := time.Date(r.StartYear, r.StartMonth, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(r.EndYear, r.EndMonth, 1, 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		return fmt.Errorf("range end %04d-%02d before start %04d-%02d",
			r.EndYear, r.EndMonth, r.StartYear, r.StartMonth)
	}
	return nil
}

// Dates expands the range into target dates in ascending chronological order.
// In month-end mode exactly one date per month is emitted; in all-days mode
// every calendar day is emitted.
func (r DateRange) Dates() ([]TargetDate, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var dates []TargetDate
	cursor := time.Date(r.StartYear, r.StartMonth, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(r.EndYear, r.EndMonth, 1, 0, 0, 0, 0, time.UTC)

	for !cursor.After(end) {
		year, month := cursor.Year(), cursor.Month()
		last := lastDayOfMonth(year, month)

		if r.AllDays {
			for day := 1; day <= last; day++ {
				dates = append(dates, TargetDate{
					Year:     year,
					Month:    month,
					Day:      day,
					MonthEnd: day == last,
				})
			}
		} else {
			dates = append(dates, TargetDate{
				Year:     year,
				Month:    month,
				Day:      last,
				MonthEnd: true,
			})
		}

		cursor = cursor.AddDate(0, 1, 0)
	}

	return dates, nil
}

// Contains reports whether the date falls inside the range, used when
// filtering ledger rows for retry.
func (r DateRange) Contains(d TargetDate) bool {
	start := time.Date(r.StartYear, r.StartMonth, 1, 0, 0, 0, 0, time.UTC)
	endLast := lastDayOfMonth(r.EndYear, r.EndMonth)
	end := time.Date(r.EndYear, r.EndMonth, endLast, 0, 0, 0, 0, time.UTC)
	t := d.Time()
	return !t.Before(start) && !t.After(end)
}
