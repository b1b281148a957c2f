package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/drifthound/drifthound/config"
	"github.com/drifthound/drifthound/history"
	"github.com/drifthound/drifthound/providers"
	"github.com/drifthound/drifthound/scan"
	"github.com/drifthound/drifthound/state"
	"github.com/drifthound/drifthound/telemetry"
)

var (
	watchInterval   time.Duration
	watchRegion     string
	watchStatePath  string
	watchHistoryDir string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scan continuously at a fixed interval",
	Long: `Run scans on a fixed interval until interrupted, persisting every
report to the history database. Drift does not stop the loop; scan
failures are logged and the next tick tries again.`,
	Example: `  drifthound watch --state terraform.tfstate --interval 15m
  drifthound watch --state terraform.tfstate --history-dir ~/.drifthound`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 15*time.Minute, "Time between scans")
	watchCmd.Flags().StringVarP(&watchRegion, "region", "r", "us-east-1", "AWS region to scan")
	watchCmd.Flags().StringVarP(&watchStatePath, "state", "s", "", "Path to Terraform state snapshot")
	watchCmd.Flags().StringVar(&watchHistoryDir, "history-dir", "", "Directory for the scan history database")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if watchStatePath == "" {
		return fmt.Errorf("a state snapshot is required (--state)")
	}

	ctx := context.Background()
	logger := telemetry.NewLogger("watch")

	provider, err := providers.GetProvider(ctx, "aws", providers.ProviderConfig{Region: watchRegion})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	orchestrator := scan.NewOrchestrator(provider, state.NewTerraformReader(watchStatePath), scan.Options{
		Concurrency: config.DefaultConcurrency,
		MaxAttempts: config.DefaultMaxAttempts,
		Timeout:     config.DefaultTimeout,
	})

	if watchHistoryDir != "" {
		store, err := history.Open(watchHistoryDir)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		orchestrator.WithHistory(store)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	var group run.Group

	group.Add(func() error {
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		runOnce(loopCtx, orchestrator, logger)
		for {
			select {
			case <-loopCtx.Done():
				return loopCtx.Err()
			case <-ticker.C:
				runOnce(loopCtx, orchestrator, logger)
			}
		}
	}, func(error) {
		cancel()
	})

	group.Add(run.SignalHandler(loopCtx, os.Interrupt, syscall.SIGTERM))

	if err := group.Run(); err != nil {
		var signalErr run.SignalError
		if errors.As(err, &signalErr) || loopCtx.Err() != nil {
			logger.Info().Msg("watch stopped")
			return nil
		}
		return err
	}
	return nil
}

func runOnce(ctx context.Context, orchestrator *scan.Orchestrator, logger *telemetry.Logger) {
	result, err := orchestrator.Scan(ctx)
	if err != nil {
		logger.WithContext(ctx).Error().
			Err(err).
			Msg("scheduled scan failed")
		return
	}
	if result.HasDrift() {
		logger.WithContext(ctx).Warn().
			Int("drifted", result.DriftedCount).
			Int("unmanaged", result.UnmanagedCount).
			Msg("drift detected")
	}
}
