package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/drifthound/drifthound/types"
)

// ScanMetrics holds the drift scan instruments. The otel API is no-op
// unless the embedding process installs a meter provider.
type ScanMetrics struct {
	ScansTotal      metric.Int64Counter
	ScanFailures    metric.Int64Counter
	EntriesTotal    metric.Int64Counter
	ScanDuration    metric.Float64Histogram
	ResourcesListed metric.Int64Counter
}

// InitScanMetrics initializes all scan instruments on the given meter
func InitScanMetrics(meter metric.Meter) (*ScanMetrics, error) {
	m := &ScanMetrics{}
	var err error

	m.ScansTotal, err = meter.Int64Counter(
		"drifthound.scans.total",
		metric.WithDescription("Total number of scans run"),
		metric.WithUnit("scans"),
	)
	if err != nil {
		return nil, err
	}

	m.ScanFailures, err = meter.Int64Counter(
		"drifthound.scans.failed.total",
		metric.WithDescription("Total number of scans that aborted"),
		metric.WithUnit("scans"),
	)
	if err != nil {
		return nil, err
	}

	m.EntriesTotal, err = meter.Int64Counter(
		"drifthound.entries.total",
		metric.WithDescription("Drift entries produced, by classification"),
		metric.WithUnit("entries"),
	)
	if err != nil {
		return nil, err
	}

	m.ScanDuration, err = meter.Float64Histogram(
		"drifthound.scan.duration",
		metric.WithDescription("Wall time of a full scan"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.ResourcesListed, err = meter.Int64Counter(
		"drifthound.resources.listed.total",
		metric.WithDescription("Raw resources returned by collaborators"),
		metric.WithUnit("resources"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordReport records per-classification entry counts for a finished scan
func (m *ScanMetrics) RecordReport(ctx context.Context, report *types.ScanReport) {
	counts := map[types.Classification]int{
		types.ClassificationCovered:   report.CoveredCount,
		types.ClassificationDrifted:   report.DriftedCount,
		types.ClassificationUnmanaged: report.UnmanagedCount,
		types.ClassificationMissing:   report.MissingCount,
	}
	for classification, count := range counts {
		if count == 0 {
			continue
		}
		m.EntriesTotal.Add(ctx, int64(count),
			metric.WithAttributes(attribute.String("classification", string(classification))))
	}
}
