package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dispatchlab/fieldsched/app"
	"github.com/dispatchlab/fieldsched/config"
	"github.com/dispatchlab/fieldsched/infra/logger"
)

var dryRun bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run one batch scheduling pass over pending jobs",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&dryRun, "dry-run", false, "generate and preflight proposals without submitting offers")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.RunBatch(ctx, dryRun)
}
