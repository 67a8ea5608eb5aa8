package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/exstrade/tradeguard/journal"
)

func newJournalCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the trade journal",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "./tradeguard.sqlite", "Path to SQLite journal DB")

	cmd.AddCommand(&cobra.Command{
		Use:   "trade <trade_id>",
		Short: "Show one closed trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			rec, err := j.GetTrade(args[0])
			if err != nil {
				return err
			}
			printTrade(rec)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "today",
		Short: "List trades closed today",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDay(dbPath, time.Now().Format("2006-01-02"))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "List trades closed on a given day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDay(dbPath, args[0])
		},
	})

	equity := &cobra.Command{
		Use:   "equity <symbol>",
		Short: "Print a symbol's equity curve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			from, err := parseBound(cmd, "from")
			if err != nil {
				return err
			}
			to, err := parseBound(cmd, "to")
			if err != nil {
				return err
			}

			recs, err := j.ListEquityRange(args[0], from, to)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Printf("%s  %.2f\n", r.Time.Format(time.RFC3339), r.Balance)
			}
			return nil
		},
	}
	equity.Flags().String("from", "", "Start bound (RFC3339, inclusive)")
	equity.Flags().String("to", "", "End bound (RFC3339, exclusive)")
	cmd.AddCommand(equity)

	return cmd
}

func listDay(dbPath, day string) error {
	j, err := journal.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	for _, rec := range recs {
		printTrade(rec)
	}
	fmt.Printf("%d trade(s)\n", len(recs))
	return nil
}

func printTrade(t journal.TradeRecord) {
	fmt.Printf("%s  %-7s %-4s entry %.2f exit %.2f size %.6f pnl %+.2f  closed %s\n",
		t.TradeID, t.Symbol, t.Side, t.EntryPrice, t.ExitPrice,
		t.PositionSize, t.PnL, t.ExitTime.Format(time.RFC3339))
}

func parseBound(cmd *cobra.Command, name string) (time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be RFC3339: %w", name, err)
	}
	return t, nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour), nil
}
