package types

import (
	"math"
	"time"
)

// Classification categorizes one identity after comparing both origins.
type Classification string

const (
	// ClassificationCovered means present on both sides with identical
	// normalized attributes.
	ClassificationCovered Classification = "covered"
	// ClassificationDrifted means present on both sides with differing
	// attributes.
	ClassificationDrifted Classification = "drifted"
	// ClassificationUnmanaged means live only.
	ClassificationUnmanaged Classification = "unmanaged"
	// ClassificationMissing means declared only.
	ClassificationMissing Classification = "missing"
)

// AttributeDiff is one attribute-level discrepancy between live and
// declared values at a flattened path. A nil side means the path is
// absent on that side.
type AttributeDiff struct {
	Path     string `json:"path"`
	Live     any    `json:"live"`
	Declared any    `json:"declared"`
}

// DriftEntry is the differ's verdict for one resource identity.
type DriftEntry struct {
	Identity       ResourceIdentity `json:"identity"`
	Classification Classification   `json:"classification"`
	AttributeDiffs []AttributeDiff  `json:"attribute_diffs,omitempty"`
}

// SkippedResource records a resource dropped during normalization.
// Skips degrade the report but do not abort the scan.
type SkippedResource struct {
	Type   string `json:"type"`
	Origin Origin `json:"origin"`
	Reason string `json:"reason"`
}

// ScanReport is the sole artifact of a scan. Immutable once produced.
type ScanReport struct {
	Timestamp       time.Time         `json:"timestamp"`
	TotalScanned    int               `json:"total_scanned"`
	Entries         []DriftEntry      `json:"entries"`
	CoveredCount    int               `json:"covered_count"`
	DriftedCount    int               `json:"drifted_count"`
	UnmanagedCount  int               `json:"unmanaged_count"`
	MissingCount    int               `json:"missing_count"`
	IgnoredCount    int               `json:"ignored_count,omitempty"`
	Skipped         []SkippedResource `json:"skipped,omitempty"`
	CoveragePercent float64           `json:"coverage_percent"`
}

// HasDrift reports whether the scan found anything a clean IaC setup
// would not have: drifted or unmanaged resources.
func (r *ScanReport) HasDrift() bool {
	return r.DriftedCount > 0 || r.UnmanagedCount > 0
}

// DisplayCoverage is the coverage percent rounded for human output.
func (r *ScanReport) DisplayCoverage() int {
	return int(math.Round(r.CoveragePercent))
}
