package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"lofin_collector/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the collection ledger for a date range",
	RunE:  runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.IntVar(&collectFlags.startYear, "start-year", 0, "first year to show (default from config)")
	f.IntVar(&collectFlags.startMonth, "start-month", 1, "first month to show")
	f.IntVar(&collectFlags.endYear, "end-year", 0, "last year to show (default from config)")
	f.IntVar(&collectFlags.endMonth, "end-month", 12, "last month to show")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	r := collectRange(a)
	if err := r.Validate(); err != nil {
		return err
	}

	from := domain.NewTargetDate(time.Date(r.StartYear, r.StartMonth, 1, 0, 0, 0, 0, time.UTC))
	to := domain.NewTargetDate(time.Date(r.EndYear, r.EndMonth+1, 0, 0, 0, 0, 0, time.UTC))

	entries, err := a.ledger.Entries(ctx, from, to)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("no ledger entries in range")
		return nil
	}

	counts := map[domain.CollectionStatus]int{}
	records := 0

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSTATUS\tRECORDS\tEXPECTED\tATTEMPTS\tUPDATED")
	for _, e := range entries {
		expected := fmt.Sprintf("%d", e.TotalExpected)
		if e.TotalExpected < 0 {
			expected = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
			e.Date().String(),
			e.Status,
			e.RecordCount,
			expected,
			e.Attempts,
			e.UpdatedAt.Format(time.RFC3339),
		)
		counts[e.Status]++
		records += e.RecordCount
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d entries, %d records", len(entries), records)
	for _, st := range []domain.CollectionStatus{
		domain.StatusComplete,
		domain.StatusIncomplete,
		domain.StatusFailed,
		domain.StatusInProgress,
	} {
		if n := counts[st]; n > 0 {
			fmt.Printf(", %d %s", n, st)
		}
	}
	fmt.Println()

	return nil
}
