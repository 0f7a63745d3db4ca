package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lofin_collector/internal/domain"
)

var collectFlags struct {
	startYear  int
	startMonth int
	endYear    int
	endMonth   int
	allDays    bool
	date       string
	refetch    bool
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch expenditure records for the configured date range",
	RunE:  runCollect,
}

func init() {
	f := collectCmd.Flags()
	f.IntVar(&collectFlags.startYear, "start-year", 0, "first year to collect (default from config)")
	f.IntVar(&collectFlags.startMonth, "start-month", 1, "first month to collect")
	f.IntVar(&collectFlags.endYear, "end-year", 0, "last year to collect (default from config)")
	f.IntVar(&collectFlags.endMonth, "end-month", 12, "last month to collect")
	f.BoolVar(&collectFlags.allDays, "all-days", false, "collect every day instead of month ends only")
	f.StringVar(&collectFlags.date, "date", "", "collect a single date (YYYY-MM-DD), overrides the range flags")
	f.BoolVar(&collectFlags.refetch, "refetch", false, "re-collect dates already marked complete")

	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	if collectFlags.refetch {
		a.collector.SetRefetchCompleted(true)
	}

	dates, err := planDates(a)
	if err != nil {
		return err
	}

	summary, err := a.collector.Run(ctx, dates)
	if err != nil {
		return err
	}

	printSummary(summary)

	if !summary.Succeeded() && summary.Skipped != summary.Planned {
		return fmt.Errorf("no dates completed")
	}
	return nil
}

// planDates turns the flags into the list of target dates. --date wins over
// the range flags; range years default to the configured collection window.
func planDates(a *app) ([]domain.TargetDate, error) {
	if collectFlags.date != "" {
		d, err := domain.ParseTargetDate(collectFlags.date)
		if err != nil {
			return nil, err
		}
		return []domain.TargetDate{d}, nil
	}
	return collectRange(a).Dates()
}

func collectRange(a *app) domain.DateRange {
	r := domain.DateRange{
		StartYear:  collectFlags.startYear,
		StartMonth: time.Month(collectFlags.startMonth),
		EndYear:    collectFlags.endYear,
		EndMonth:   time.Month(collectFlags.endMonth),
		AllDays:    collectFlags.allDays,
	}
	if r.StartYear == 0 {
		r.StartYear = a.cfg.Collection.StartYear
	}
	if r.EndYear == 0 {
		r.EndYear = a.cfg.Collection.EndYear
	}
	return r
}
