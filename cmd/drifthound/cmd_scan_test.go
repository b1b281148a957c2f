package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/drifthound/drifthound/history"
	"github.com/drifthound/drifthound/scan"
	"github.com/drifthound/drifthound/types"
)

func TestFinishScanClosesHistoryStore(t *testing.T) {
	dir := t.TempDir()
	store, err := history.Open(dir)
	require.NoError(t, err)

	result := &types.ScanReport{TotalScanned: 1, DriftedCount: 1}
	var stdout, stderr bytes.Buffer

	code, err := finishScan(&stdout, &stderr, "human", store, result, nil)
	require.NoError(t, err)
	assert.Equal(t, scan.ExitDrift, code)

	// An open store still holds the bbolt file lock; reopening with a
	// lock timeout fails unless finishScan released it.
	db, err := bbolt.Open(filepath.Join(dir, "drifthound.db"), 0600, &bbolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestFinishScanFailureGoesToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	failure := &scan.ScanFailure{Phase: scan.PhaseEnumerating, Err: errors.New("credentials expired")}

	code, err := finishScan(&stdout, &stderr, "human", nil, nil, failure)
	require.NoError(t, err)
	assert.Equal(t, scan.ExitFailure, code)
	assert.Contains(t, stderr.String(), "scan failed during enumerating")
	assert.Empty(t, stdout.String())
}

func TestFinishScanRendersJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	result := &types.ScanReport{TotalScanned: 2, CoveredCount: 2, CoveragePercent: 100}

	code, err := finishScan(&stdout, &stderr, "json", nil, result, nil)
	require.NoError(t, err)
	assert.Equal(t, scan.ExitClean, code)
	assert.Contains(t, stdout.String(), `"total_scanned": 2`)
}
