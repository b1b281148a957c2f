package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "drifthound",
		Short: "Infrastructure drift detection engine",
		Long: `Drifthound - Infrastructure Drift Detection

Drifthound scans your live cloud resources, compares them against your
infrastructure-as-code state snapshot, and reports every discrepancy:
drifted attributes, unmanaged resources, and declared resources that
no longer exist.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

// init sets up the root command
func init() {
	rootCmd.SetVersionTemplate(`Drifthound {{.Version}}
`)
}
