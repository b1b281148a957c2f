// Package scan coordinates the drift pipeline: enumerate live and
// declared resources, normalize, index, diff, and report.
package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/drifthound/drifthound/differ"
	"github.com/drifthound/drifthound/history"
	"github.com/drifthound/drifthound/index"
	"github.com/drifthound/drifthound/normalizer"
	"github.com/drifthound/drifthound/policy"
	"github.com/drifthound/drifthound/providers"
	"github.com/drifthound/drifthound/report"
	"github.com/drifthound/drifthound/state"
	"github.com/drifthound/drifthound/telemetry"
	"github.com/drifthound/drifthound/types"
)

// Options configure a scan.
type Options struct {
	// ResourceTypes limits enumeration; empty means every type the
	// provider supports.
	ResourceTypes []string
	// Concurrency bounds the enumeration worker pool.
	Concurrency int
	// MaxAttempts bounds retries per resource type, counting the first
	// attempt.
	MaxAttempts int
	// Timeout cancels all in-flight calls when exceeded.
	Timeout time.Duration
	// IncludeComputed keeps provider-computed attributes in the diff.
	IncludeComputed bool
}

// Orchestrator drives one scan at a time through the phase pipeline.
type Orchestrator struct {
	provider   providers.ResourceLister
	state      state.Reader
	normalizer *normalizer.Normalizer
	ignore     *policy.IgnoreEngine
	history    *history.Store
	logger     *telemetry.Logger
	tracer     trace.Tracer
	metrics    *telemetry.ScanMetrics
	opts       Options

	phase atomic.Value
}

// NewOrchestrator creates an orchestrator over the two collaborators
func NewOrchestrator(provider providers.ResourceLister, stateReader state.Reader, opts Options) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	o := &Orchestrator{
		provider:   provider,
		state:      stateReader,
		normalizer: normalizer.New(normalizer.Options{IncludeComputed: opts.IncludeComputed}),
		logger:     telemetry.NewLogger("scan"),
		tracer:     otel.Tracer("scan"),
		opts:       opts,
	}
	o.phase.Store(PhaseIdle)

	if metrics, err := telemetry.InitScanMetrics(otel.Meter("drifthound")); err == nil {
		o.metrics = metrics
	}

	return o
}

// WithIgnoreEngine sets the policy engine filtering drift entries
func (o *Orchestrator) WithIgnoreEngine(engine *policy.IgnoreEngine) *Orchestrator {
	o.ignore = engine
	return o
}

// WithHistory sets the report history store
func (o *Orchestrator) WithHistory(store *history.Store) *Orchestrator {
	o.history = store
	return o
}

// Phase returns the orchestrator's current pipeline phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase.Load().(Phase)
}

func (o *Orchestrator) setPhase(ctx context.Context, phase Phase) {
	o.phase.Store(phase)
	o.logger.LogPhaseStart(ctx, string(phase))
}

// Scan runs the full pipeline and returns the report, or a ScanFailure
// with no report. The state read and provider enumeration run
// concurrently; everything downstream is sequential.
func (o *Orchestrator) Scan(ctx context.Context) (*types.ScanReport, error) {
	start := time.Now()

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	ctx, span := o.tracer.Start(ctx, "scan.run",
		trace.WithAttributes(attribute.String("provider", o.provider.Name())))
	defer span.End()

	if o.metrics != nil {
		o.metrics.ScansTotal.Add(ctx, 1)
	}

	resourceTypes := o.opts.ResourceTypes
	if len(resourceTypes) == 0 {
		resourceTypes = o.provider.ResourceTypes()
	}

	o.setPhase(ctx, PhaseEnumerating)

	type declaredResult struct {
		resources []types.RawResource
		err       error
	}
	declaredCh := make(chan declaredResult, 1)
	go func() {
		resources, err := o.state.ListDeclared(ctx)
		declaredCh <- declaredResult{resources: resources, err: err}
	}()

	liveRaw, enumErr := o.enumerate(ctx, resourceTypes)
	if enumErr != nil {
		<-declaredCh
		return o.fail(ctx, enumErr)
	}

	declared := <-declaredCh
	if declared.err != nil {
		return o.fail(ctx, &ScanFailure{Phase: PhaseEnumerating, Err: declared.err})
	}

	if o.metrics != nil {
		o.metrics.ResourcesListed.Add(ctx, int64(len(liveRaw)+len(declared.resources)))
	}

	o.setPhase(ctx, PhaseNormalizing)

	var skipped []types.SkippedResource
	liveRecords := o.normalizeAll(ctx, liveRaw, types.OriginLive, &skipped)
	declaredRecords := o.normalizeAll(ctx, declared.resources, types.OriginDeclared, &skipped)

	liveIndex, err := index.Build(types.OriginLive, liveRecords)
	if err != nil {
		return o.fail(ctx, &ScanFailure{Phase: PhaseNormalizing, Err: err})
	}
	declaredIndex, err := index.Build(types.OriginDeclared, declaredRecords)
	if err != nil {
		return o.fail(ctx, &ScanFailure{Phase: PhaseNormalizing, Err: err})
	}

	o.setPhase(ctx, PhaseDiffing)
	entries := differ.Diff(liveIndex, declaredIndex)

	o.setPhase(ctx, PhaseReporting)

	ignored := 0
	if o.ignore != nil {
		entries, ignored = o.ignore.Filter(ctx, entries)
	}

	result := report.Summarize(entries)
	result.IgnoredCount = ignored
	result.Skipped = skipped

	if o.history != nil {
		if err := o.history.SaveReport(&result); err != nil {
			o.logger.WithContext(ctx).Warn().
				Err(err).
				Msg("failed to persist report")
		}
	}

	if o.metrics != nil {
		o.metrics.RecordReport(ctx, &result)
		o.metrics.ScanDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	}

	o.setPhase(ctx, PhaseDone)
	o.logger.WithContext(ctx).Info().
		Int("total", result.TotalScanned).
		Int("covered", result.CoveredCount).
		Int("drifted", result.DriftedCount).
		Int("unmanaged", result.UnmanagedCount).
		Int("missing", result.MissingCount).
		Dur("duration", time.Since(start)).
		Msg("scan complete")

	return &result, nil
}

func (o *Orchestrator) fail(ctx context.Context, failure *ScanFailure) (*types.ScanReport, error) {
	o.phase.Store(PhaseFailed)
	if o.metrics != nil {
		o.metrics.ScanFailures.Add(ctx, 1)
	}
	o.logger.LogPhaseError(ctx, string(failure.Phase), failure.Err)
	return nil, failure
}

// typeResult carries one worker's enumeration outcome; workers never
// share a mutable accumulator, the collector merges after the join.
type typeResult struct {
	resourceType string
	resources    []types.RawResource
	err          error
}

// enumerate lists every requested resource type through a bounded
// worker pool. The first failure cancels remaining work.
func (o *Orchestrator) enumerate(ctx context.Context, resourceTypes []string) ([]types.RawResource, *ScanFailure) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	results := make(chan typeResult, len(resourceTypes))

	workers := o.opts.Concurrency
	if workers > len(resourceTypes) {
		workers = len(resourceTypes)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for resourceType := range jobs {
				resources, err := o.listWithRetry(ctx, resourceType)
				results <- typeResult{resourceType: resourceType, resources: resources, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, resourceType := range resourceTypes {
			select {
			case jobs <- resourceType:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byType := make(map[string][]types.RawResource, len(resourceTypes))
	var failure *ScanFailure
	for result := range results {
		if result.err != nil {
			if failure == nil {
				failure = &ScanFailure{
					Phase:        PhaseEnumerating,
					ResourceType: result.resourceType,
					Err:          result.err,
				}
				cancel()
			}
			continue
		}
		byType[result.resourceType] = result.resources
	}

	if failure != nil {
		return nil, failure
	}
	if err := ctx.Err(); err != nil {
		return nil, &ScanFailure{Phase: PhaseEnumerating, Err: err}
	}

	// Merge in requested type order; the index re-sorts by identity, so
	// completion order never reaches the output.
	var merged []types.RawResource
	for _, resourceType := range resourceTypes {
		merged = append(merged, byType[resourceType]...)
	}
	return merged, nil
}

// listWithRetry lists one resource type, retrying transient provider
// failures with exponential backoff up to MaxAttempts.
func (o *Orchestrator) listWithRetry(ctx context.Context, resourceType string) ([]types.RawResource, error) {
	operation := func() ([]types.RawResource, error) {
		resources, err := o.provider.ListResources(ctx, resourceType)
		if err != nil {
			var provErr *providers.ProviderError
			if errors.As(err, &provErr) && !provErr.Retryable() {
				return nil, backoff.Permanent(err)
			}
			o.logger.WithContext(ctx).Warn().
				Err(err).
				Str("resource_type", resourceType).
				Msg("enumeration attempt failed")
			return nil, err
		}
		return resources, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 250 * time.Millisecond
	expo.MaxInterval = 5 * time.Second

	return backoff.RetryWithData(operation,
		backoff.WithContext(backoff.WithMaxRetries(expo, uint64(o.opts.MaxAttempts-1)), ctx))
}

// normalizeAll normalizes one origin's raw set. Normalization failures
// skip the resource, never the scan.
func (o *Orchestrator) normalizeAll(ctx context.Context, raws []types.RawResource, origin types.Origin, skipped *[]types.SkippedResource) []types.ResourceRecord {
	records := make([]types.ResourceRecord, 0, len(raws))
	for _, raw := range raws {
		record, err := o.normalizer.Normalize(raw, origin)
		if err != nil {
			o.logger.LogResourceSkipped(ctx, raw.Type, string(origin), err)
			*skipped = append(*skipped, types.SkippedResource{
				Type:   raw.Type,
				Origin: origin,
				Reason: err.Error(),
			})
			continue
		}
		records = append(records, record)
	}
	return records
}
