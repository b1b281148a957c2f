// Package policy filters drift entries through Rego ignore rules,
// the machine-readable form of "we know about this one".
package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/drifthound/drifthound/telemetry"
	"github.com/drifthound/drifthound/types"
)

// IgnoreEngine evaluates loaded ignore policies against drift entries.
// A policy ignores an entry by setting `ignore := true` under the
// `drifthound` package for the given input.
type IgnoreEngine struct {
	logger  *telemetry.Logger
	queries map[string]rego.PreparedEvalQuery
}

// NewIgnoreEngine creates an engine with no policies loaded
func NewIgnoreEngine() *IgnoreEngine {
	return &IgnoreEngine{
		logger:  telemetry.NewLogger("policy"),
		queries: make(map[string]rego.PreparedEvalQuery),
	}
}

// LoadPolicy compiles and registers one Rego policy
func (e *IgnoreEngine) LoadPolicy(ctx context.Context, name string, regoCode string) error {
	query := rego.New(
		rego.Query("data.drifthound"),
		rego.Module(name, regoCode),
	)

	prepared, err := query.PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to compile policy %s: %w", name, err)
	}

	e.queries[name] = prepared

	e.logger.WithContext(ctx).Info().
		Str("policy_name", name).
		Msg("policy loaded")

	return nil
}

// LoadDir loads every *.rego file in a directory
func (e *IgnoreEngine) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read policy dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rego") {
			continue
		}
		code, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304 -- dir is intentional user input
		if err != nil {
			return fmt.Errorf("failed to read policy %s: %w", entry.Name(), err)
		}
		if err := e.LoadPolicy(ctx, entry.Name(), string(code)); err != nil {
			return err
		}
	}

	return nil
}

// PolicyCount returns how many policies are loaded
func (e *IgnoreEngine) PolicyCount() int {
	return len(e.queries)
}

// ShouldIgnore reports whether any loaded policy ignores the entry.
// Evaluation failures count as not-ignored: a broken policy must never
// silently suppress drift.
func (e *IgnoreEngine) ShouldIgnore(ctx context.Context, entry types.DriftEntry) bool {
	for name, query := range e.queries {
		if e.evaluatePolicy(ctx, name, query, entry) {
			return true
		}
	}
	return false
}

// Filter drops ignored entries and returns the kept set plus the
// ignored count.
func (e *IgnoreEngine) Filter(ctx context.Context, entries []types.DriftEntry) ([]types.DriftEntry, int) {
	if len(e.queries) == 0 {
		return entries, 0
	}

	kept := make([]types.DriftEntry, 0, len(entries))
	ignored := 0
	for _, entry := range entries {
		if e.ShouldIgnore(ctx, entry) {
			ignored++
			e.logger.WithContext(ctx).Debug().
				Str("resource", entry.Identity.String()).
				Str("classification", string(entry.Classification)).
				Msg("entry ignored by policy")
			continue
		}
		kept = append(kept, entry)
	}
	return kept, ignored
}

// evaluatePolicy evaluates a single policy against one entry
func (e *IgnoreEngine) evaluatePolicy(ctx context.Context, name string, query rego.PreparedEvalQuery, entry types.DriftEntry) bool {
	results, err := query.Eval(ctx, rego.EvalInput(entry))
	if err != nil {
		e.logger.WithContext(ctx).Error().
			Err(err).
			Str("policy_name", name).
			Msg("policy evaluation failed")
		return false
	}

	for _, result := range results {
		for _, expression := range result.Expressions {
			value, ok := expression.Value.(map[string]any)
			if !ok {
				continue
			}
			if ignore, ok := value["ignore"].(bool); ok && ignore {
				return true
			}
		}
	}

	return false
}
