package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/drifthound/drifthound/config"
	"github.com/drifthound/drifthound/history"
	"github.com/drifthound/drifthound/policy"
	"github.com/drifthound/drifthound/providers"
	_ "github.com/drifthound/drifthound/providers/aws" // Register AWS provider
	"github.com/drifthound/drifthound/report"
	"github.com/drifthound/drifthound/scan"
	"github.com/drifthound/drifthound/state"
	"github.com/drifthound/drifthound/types"
)

var (
	scanConfigPath      string
	scanRegion          string
	scanStatePath       string
	scanTypes           string
	scanOutput          string
	scanConcurrency     int
	scanTimeout         time.Duration
	scanPolicyDir       string
	scanHistoryDir      string
	scanIncludeComputed bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan live resources against declared state",
	Long: `Scan your cloud infrastructure and compare it against the declared
infrastructure-as-code state snapshot.

Every resource ends up in exactly one bucket: covered, drifted,
unmanaged (live but not declared), or missing (declared but gone).`,
	Example: `  drifthound scan --state terraform.tfstate
  drifthound scan --state terraform.tfstate --region us-west-2
  drifthound scan --state terraform.tfstate --types aws_security_group
  drifthound scan --config drifthound.yaml --output json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanConfigPath, "config", "c", "", "Path to config file")
	scanCmd.Flags().StringVarP(&scanRegion, "region", "r", "us-east-1", "AWS region to scan")
	scanCmd.Flags().StringVarP(&scanStatePath, "state", "s", "", "Path to Terraform state snapshot")
	scanCmd.Flags().StringVarP(&scanTypes, "types", "t", "", "Comma-separated resource type filter")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "human", "Output format: human, json")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", config.DefaultConcurrency, "Concurrent enumeration calls")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", config.DefaultTimeout, "Global scan timeout")
	scanCmd.Flags().StringVar(&scanPolicyDir, "policy-dir", "", "Directory of Rego ignore policies")
	scanCmd.Flags().StringVar(&scanHistoryDir, "history-dir", "", "Directory for the scan history database")
	scanCmd.Flags().BoolVar(&scanIncludeComputed, "include-computed", false, "Compare provider-computed attributes too")
}

func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if scanOutput != "human" && scanOutput != "json" {
		return fmt.Errorf("invalid output format: %s (must be human or json)", scanOutput)
	}

	settings, err := resolveScanSettings(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()

	provider, err := providers.GetProvider(ctx, settings.Provider, providers.ProviderConfig{Region: settings.Region})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	orchestrator := scan.NewOrchestrator(provider, state.NewTerraformReader(settings.State.Path), scan.Options{
		ResourceTypes:   settings.Scan.ResourceTypes,
		Concurrency:     settings.Scan.Concurrency,
		MaxAttempts:     settings.Scan.MaxAttempts,
		Timeout:         settings.Scan.Timeout,
		IncludeComputed: settings.Scan.IncludeComputed,
	})

	if settings.PolicyDir != "" {
		engine := policy.NewIgnoreEngine()
		if err := engine.LoadDir(ctx, settings.PolicyDir); err != nil {
			return err
		}
		orchestrator.WithIgnoreEngine(engine)
	}

	var store *history.Store
	if settings.History.Dir != "" {
		store, err = history.Open(settings.History.Dir)
		if err != nil {
			return err
		}
		orchestrator.WithHistory(store)
	}

	result, scanErr := orchestrator.Scan(ctx)

	code, err := finishScan(os.Stdout, os.Stderr, scanOutput, store, result, scanErr)
	if err != nil {
		return err
	}
	if code != scan.ExitClean {
		os.Exit(code)
	}
	return nil
}

// finishScan renders the scan outcome and closes the history store, then
// returns the process exit code. The store must be closed here rather
// than deferred: os.Exit skips deferred calls, so the drift and failure
// exit paths would otherwise leave the database open.
func finishScan(stdout, stderr io.Writer, output string, store *history.Store, result *types.ScanReport, scanErr error) (int, error) {
	var renderErr error
	switch {
	case scanErr != nil:
		fmt.Fprintf(stderr, "Error: %v\n", scanErr)
	case output == "json":
		renderErr = report.WriteJSON(stdout, result)
	default:
		renderErr = report.WriteHuman(stdout, result)
	}

	if store != nil {
		if closeErr := store.Close(); closeErr != nil && renderErr == nil {
			renderErr = closeErr
		}
	}

	return scan.ExitCode(result, scanErr), renderErr
}

// resolveScanSettings merges the optional config file with flags; a
// flag set on the command line wins over the file.
func resolveScanSettings(cmd *cobra.Command) (*config.Config, error) {
	var settings *config.Config

	if scanConfigPath != "" {
		loaded, err := config.LoadConfig(scanConfigPath)
		if err != nil {
			return nil, err
		}
		settings = loaded
	} else {
		settings = &config.Config{
			Version:  "1",
			Provider: "aws",
		}
	}

	flags := cmd.Flags()
	if settings.Region == "" || flags.Changed("region") {
		settings.Region = scanRegion
	}
	if settings.State.Path == "" || flags.Changed("state") {
		settings.State.Path = scanStatePath
	}
	if settings.Scan.Concurrency == 0 || flags.Changed("concurrency") {
		settings.Scan.Concurrency = scanConcurrency
	}
	if settings.Scan.Timeout == 0 || flags.Changed("timeout") {
		settings.Scan.Timeout = scanTimeout
	}
	if settings.Scan.MaxAttempts == 0 {
		settings.Scan.MaxAttempts = config.DefaultMaxAttempts
	}
	if flags.Changed("include-computed") {
		settings.Scan.IncludeComputed = scanIncludeComputed
	}
	if flags.Changed("policy-dir") {
		settings.PolicyDir = scanPolicyDir
	}
	if flags.Changed("history-dir") {
		settings.History.Dir = scanHistoryDir
	}
	if scanTypes != "" {
		settings.Scan.ResourceTypes = splitTypes(scanTypes)
	}

	if settings.State.Path == "" {
		return nil, fmt.Errorf("a state snapshot is required (--state or config state.path)")
	}

	return settings, nil
}

func splitTypes(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
