package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"lofin_collector/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically re-collect incomplete dates until interrupted",
	RunE:  runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.IntVar(&collectFlags.startYear, "start-year", 0, "first year to watch (default from config)")
	f.IntVar(&collectFlags.startMonth, "start-month", 1, "first month to watch")
	f.IntVar(&collectFlags.endYear, "end-year", 0, "last year to watch (default from config)")
	f.IntVar(&collectFlags.endMonth, "end-month", 12, "last month to watch")
	f.BoolVar(&collectFlags.allDays, "all-days", false, "watch every day instead of month ends only")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	sched := scheduler.NewScheduler(a.collector, collectRange(a), a.cfg.Watch.Interval, a.logger)

	err = sched.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
