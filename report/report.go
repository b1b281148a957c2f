// Package report aggregates drift entries into the scan's sole output
// artifact and renders it for humans or machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/drifthound/drifthound/types"
)

// Summarize aggregates entries into an immutable ScanReport. Coverage
// counts covered and drifted identities: a drifted resource is still
// managed by IaC, it just disagrees about its attributes.
func Summarize(entries []types.DriftEntry) types.ScanReport {
	r := types.ScanReport{
		Timestamp: time.Now().UTC(),
		Entries:   entries,
	}

	for _, entry := range entries {
		switch entry.Classification {
		case types.ClassificationCovered:
			r.CoveredCount++
		case types.ClassificationDrifted:
			r.DriftedCount++
		case types.ClassificationUnmanaged:
			r.UnmanagedCount++
		case types.ClassificationMissing:
			r.MissingCount++
		}
	}

	r.TotalScanned = len(entries)
	if r.TotalScanned > 0 {
		r.CoveragePercent = float64(r.CoveredCount+r.DriftedCount) / float64(r.TotalScanned) * 100
	} else {
		r.CoveragePercent = 100
	}

	return r
}

// WriteJSON renders the report as a machine-consumable document.
func WriteJSON(w io.Writer, r *types.ScanReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteHuman renders the report for terminal consumption.
func WriteHuman(w io.Writer, r *types.ScanReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "TYPE\tID\tSTATUS\tDIFFS")
	for _, entry := range r.Entries {
		if entry.Classification == types.ClassificationCovered {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			entry.Identity.Type, entry.Identity.ID,
			entry.Classification, len(entry.AttributeDiffs))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nScanned %d resources: %d covered, %d drifted, %d unmanaged, %d missing",
		r.TotalScanned, r.CoveredCount, r.DriftedCount, r.UnmanagedCount, r.MissingCount)
	if r.IgnoredCount > 0 {
		fmt.Fprintf(w, " (%d ignored by policy)", r.IgnoredCount)
	}
	fmt.Fprintf(w, "\nCoverage: %d%%\n", r.DisplayCoverage())

	for _, skipped := range r.Skipped {
		fmt.Fprintf(w, "warning: skipped %s %s resource: %s\n", skipped.Origin, skipped.Type, skipped.Reason)
	}

	for _, entry := range r.Entries {
		if entry.Classification != types.ClassificationDrifted {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", entry.Identity)
		for _, diff := range entry.AttributeDiffs {
			fmt.Fprintf(w, "  %s: %v != %v\n", diff.Path, diff.Live, diff.Declared)
		}
	}

	return nil
}
