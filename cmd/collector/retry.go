package main

import (
	"context"

	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-collect dates whose ledger status is not complete",
	RunE:  runRetry,
}

func init() {
	f := retryCmd.Flags()
	f.IntVar(&collectFlags.startYear, "start-year", 0, "first year to check (default from config)")
	f.IntVar(&collectFlags.startMonth, "start-month", 1, "first month to check")
	f.IntVar(&collectFlags.endYear, "end-year", 0, "last year to check (default from config)")
	f.IntVar(&collectFlags.endMonth, "end-month", 12, "last month to check")
	f.BoolVar(&collectFlags.allDays, "all-days", false, "check every day instead of month ends only")

	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	summary, err := a.collector.RetryIncomplete(ctx, collectRange(a))
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}
