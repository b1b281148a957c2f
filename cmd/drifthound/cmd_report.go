package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drifthound/drifthound/history"
	"github.com/drifthound/drifthound/report"
)

var (
	reportHistoryDir string
	reportOutput     string
	reportLimit      int
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show stored scan reports",
	Long: `Show reports from the scan history database.

Without flags the most recent report is rendered; --limit lists the
newest N report summaries.`,
	Example: `  drifthound report --history-dir ~/.drifthound
  drifthound report --history-dir ~/.drifthound --output json
  drifthound report --history-dir ~/.drifthound --limit 5`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportHistoryDir, "history-dir", "", "Directory of the scan history database")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "human", "Output format: human, json")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0, "List the newest N report summaries instead")
}

func runReport(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if reportHistoryDir == "" {
		return fmt.Errorf("--history-dir is required")
	}

	store, err := history.Open(reportHistoryDir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if reportLimit > 0 {
		return listReports(store)
	}

	last, err := store.LastReport()
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Println("No reports stored yet. Run a scan with --history-dir first.")
		return nil
	}

	if reportOutput == "json" {
		return report.WriteJSON(os.Stdout, last)
	}
	return report.WriteHuman(os.Stdout, last)
}

func listReports(store *history.Store) error {
	reports, err := store.ListReports(reportLimit)
	if err != nil {
		return err
	}

	for _, r := range reports {
		fmt.Printf("%s  scanned=%d covered=%d drifted=%d unmanaged=%d missing=%d coverage=%d%%\n",
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.TotalScanned, r.CoveredCount, r.DriftedCount,
			r.UnmanagedCount, r.MissingCount, r.DisplayCoverage())
	}
	return nil
}
