package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dispatchlab/fieldsched/config"
	"github.com/dispatchlab/fieldsched/core/schedule/logging"
)

var (
	offersRunID string
	offersSince string
	offersLimit int
)

var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "Show recorded batch runs and their offer outcomes",
	RunE:  runOffers,
}

func init() {
	offersCmd.Flags().StringVar(&offersRunID, "run", "", "filter by run id")
	offersCmd.Flags().StringVar(&offersSince, "since", "", "only runs after this date (YYYY-MM-DD)")
	offersCmd.Flags().IntVar(&offersLimit, "limit", 10, "maximum runs to show")
	rootCmd.AddCommand(offersCmd)
}

func runOffers(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var store logging.RunStore
	switch cfg.Logging.Backend {
	case "sqlite":
		store, err = logging.NewSQLiteStore(cfg.Logging.Path)
	default:
		store, err = logging.NewJSONLStore(cfg.Logging.Path)
	}
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer func() { _ = store.Close() }()

	q := logging.RunQuery{RunID: offersRunID, Limit: offersLimit}
	if offersSince != "" {
		start, err := time.Parse("2006-01-02", offersSince)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		q.Start = start
	}
	runs, err := store.Query(ctx, q)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("run %s  %s  %d jobs, %d scheduled, %d unscheduled (%.0f%%)\n",
			r.RunID, r.Timestamp.Format(time.RFC3339), r.Jobs, r.Scheduled, r.Unscheduled, r.SuccessRate*100)
		for _, p := range r.Proposals {
			line := fmt.Sprintf("  %-12s -> %-10s %s  [%s]", p.JobID, p.EngineerID, p.Date.Format("2006-01-02"), p.Status)
			if p.OfferID != "" {
				line += "  offer " + p.OfferID
			}
			fmt.Println(line)
		}
		for _, u := range r.Skipped {
			fmt.Printf("  %-12s unscheduled [%s] %s\n", u.JobID, u.Reason, u.Detail)
		}
	}
	return nil
}
