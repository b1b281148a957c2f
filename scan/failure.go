package scan

import (
	"fmt"

	"github.com/drifthound/drifthound/types"
)

// Phase names the orchestrator's position in the scan pipeline.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseEnumerating Phase = "enumerating"
	PhaseNormalizing Phase = "normalizing"
	PhaseDiffing     Phase = "diffing"
	PhaseReporting   Phase = "reporting"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// ScanFailure is the terminal error of an aborted scan. It names the
// phase and, where known, the resource type that failed; no partial
// report accompanies it, so no coverage claim can come from partial
// data.
type ScanFailure struct {
	Phase        Phase
	ResourceType string
	Err          error
}

func (e *ScanFailure) Error() string {
	if e.ResourceType != "" {
		return fmt.Sprintf("scan failed during %s (%s): %v", e.Phase, e.ResourceType, e.Err)
	}
	return fmt.Sprintf("scan failed during %s: %v", e.Phase, e.Err)
}

func (e *ScanFailure) Unwrap() error {
	return e.Err
}

// Process exit codes, the tool's observable contract.
const (
	ExitClean   = 0
	ExitDrift   = 1
	ExitFailure = 2
)

// ExitCode maps a scan outcome onto the exit code contract.
func ExitCode(report *types.ScanReport, err error) int {
	if err != nil || report == nil {
		return ExitFailure
	}
	if report.HasDrift() {
		return ExitDrift
	}
	return ExitClean
}
