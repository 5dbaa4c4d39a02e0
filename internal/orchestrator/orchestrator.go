// Package orchestrator drives one ingestion run end to end.
// It coordinates: planning → fetching → normalization → writing → summary
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/logging"
	"grid-ingest-lab/internal/normalization"
	"grid-ingest-lab/internal/observability"
	"grid-ingest-lab/internal/planner"
	"grid-ingest-lab/internal/quality"
	"grid-ingest-lab/internal/registry"
	"grid-ingest-lab/internal/sources"
	"grid-ingest-lab/internal/storage"
	"grid-ingest-lab/internal/upsert"
)

// DefaultWorkers bounds concurrent batch fetches per run.
const DefaultWorkers = 4

// ErrNoIdentifiers means the scope resolved to nothing and the run was
// aborted before any fetch.
var ErrNoIdentifiers = errors.New("no identifiers resolved for scope")

// Orchestrator coordinates one ingestion run across all sources in scope.
type Orchestrator struct {
	registry   registry.Resolver
	adapters   *sources.AdapterSet
	engine     *upsert.Engine
	store      storage.ObservationStore
	history    storage.FetchHistoryStore
	workers    int
	policy     normalization.ResolutionPolicy
	civilZones map[domain.Source]*time.Location
	log        logging.Logger
}

// Options for creating an Orchestrator.
type Options struct {
	// Required collaborators
	Registry registry.Resolver
	Adapters *sources.AdapterSet
	Engine   *upsert.Engine
	Store    storage.ObservationStore

	// History receives one audit record per batch fetch. Nil disables
	// fetch auditing.
	History storage.FetchHistoryStore

	// Workers bounds concurrent batch fetches. Zero means DefaultWorkers.
	Workers int

	// Policy selects the resolution inference scope for sources that do
	// not declare one.
	Policy normalization.ResolutionPolicy

	// CivilZones maps settlement-calendar sources to the local time zone
	// their settlement dates are expressed in.
	CivilZones map[domain.Source]*time.Location

	Logger logging.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Orchestrator{
		registry:   opts.Registry,
		adapters:   opts.Adapters,
		engine:     opts.Engine,
		store:      opts.Store,
		history:    opts.History,
		workers:    workers,
		policy:     opts.Policy,
		civilZones: opts.CivilZones,
		log:        logger,
	}
}

// fetchOutcome is the result of one batch fetch, carried across phases.
type fetchOutcome struct {
	batch   domain.SourceBatchRequest
	result  *domain.FetchResult
	err     error
	elapsed time.Duration

	// filled during normalization
	observations []*domain.RawObservation
}

// Run executes one ingestion run over [start, end).
// Phases:
//  1. Resolve scope and plan batch requests
//  2. Fetch all batches through a bounded worker pool
//  3. Normalize decoded samples into observations
//  4. Upsert observations per identifier
//  5. Summarize, audit fetches, check completeness
//
// Errors inside a unit are collected into the summary with source
// attribution; only an empty scope aborts the run.
func (o *Orchestrator) Run(ctx context.Context, scope registry.Scope, start, end time.Time) (*domain.RunSummary, error) {
	started := time.Now().UTC()
	summary := &domain.RunSummary{
		RunID:     uuid.New().String(),
		State:     domain.RunStatePlanning,
		BySource:  make(map[domain.Source]*domain.IngestionResult),
		Errors:    []string{},
		StartedAt: started,
	}

	// Phase 1: Planning
	o.log.Infof("run %s: resolving scope source=%q identifiers=%d", summary.RunID, scope.Source, len(scope.Identifiers))
	entries, err := o.registry.Resolve(ctx, scope)
	if err != nil {
		summary.State = domain.RunStateAborted
		summary.CompletedAt = time.Now().UTC()
		observability.RecordRun("aborted", time.Since(started).Seconds())
		return summary, fmt.Errorf("resolve scope: %w", err)
	}
	if len(entries) == 0 {
		summary.State = domain.RunStateAborted
		summary.CompletedAt = time.Now().UTC()
		observability.RecordRun("aborted", time.Since(started).Seconds())
		return summary, ErrNoIdentifiers
	}

	batches, planErrs := planner.Plan(entries, start, end)
	summary.Errors = append(summary.Errors, planErrs...)
	o.log.Infof("run %s: planned %d batches from %d entries (%d unplannable)",
		summary.RunID, len(batches), len(entries), len(planErrs))

	// Phase 2: Fetching
	summary.State = domain.RunStateFetching
	outcomes := o.fetchAll(ctx, batches)

	// Phase 3: Normalizing
	summary.State = domain.RunStateNormalizing
	capacities := capacityBySource(entries)
	o.normalizeAll(outcomes, capacities, summary)

	// Phase 4: Writing
	summary.State = domain.RunStateWriting
	o.writeAll(ctx, outcomes, summary)

	// Phase 5: Summarizing
	summary.State = domain.RunStateSummarizing
	o.finishResults(summary)
	o.checkCompleteness(ctx, entries, outcomes, start, end, summary)
	o.auditFetches(ctx, outcomes, summary)

	summary.CompletedAt = time.Now().UTC()
	summary.Success = len(summary.Errors) == 0
	for _, r := range summary.BySource {
		if !r.Success {
			summary.Success = false
		}
	}

	status := "failed"
	if summary.Success {
		status = "success"
		observability.MarkSuccessfulRun(summary.CompletedAt.Unix())
	}
	observability.RecordRun(status, summary.CompletedAt.Sub(started).Seconds())
	o.log.Infof("run %s: %s, stored=%d updated=%d errors=%d",
		summary.RunID, status, summary.TotalRecordsStored, summary.TotalRecordsUpdated, len(summary.Errors))

	return summary, nil
}

// fetchAll runs all batch fetches through a bounded worker pool. Outcomes
// land at their batch's index, so no ordering is lost to scheduling.
func (o *Orchestrator) fetchAll(ctx context.Context, batches []domain.SourceBatchRequest) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(batches))
	if len(batches) == 0 {
		return outcomes
	}

	workers := o.workers
	if workers > len(batches) {
		workers = len(batches)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = o.fetchOne(ctx, batches[i])
			}
		}()
	}
	for i := range batches {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// fetchOne invokes the adapter for one batch and times the call.
func (o *Orchestrator) fetchOne(ctx context.Context, batch domain.SourceBatchRequest) fetchOutcome {
	out := fetchOutcome{batch: batch}

	adapter, ok := o.adapters.For(batch.Source)
	if !ok {
		out.err = fmt.Errorf("no adapter registered for source %s", batch.Source)
		observability.RecordFetch(batch.Source.String(), "failed", 0)
		return out
	}

	o.log.Debugf("fetching %s/%s zone=%s identifiers=%d", batch.Source, batch.SourceType, batch.Zone, len(batch.Identifiers))
	fetchStart := time.Now()
	out.result, out.err = adapter.Fetch(ctx, batch)
	out.elapsed = time.Since(fetchStart)

	switch {
	case out.err != nil:
		observability.RecordFetch(batch.Source.String(), "failed", out.elapsed.Seconds())
	case !out.result.Meta.Success:
		observability.RecordFetch(batch.Source.String(), "empty", out.elapsed.Seconds())
	default:
		observability.RecordFetch(batch.Source.String(), "success", out.elapsed.Seconds())
		observability.RecordSamplesFetched(batch.Source.String(), len(out.result.Samples))
	}
	return out
}

// normalizeAll turns fetched samples into observations, filtering each
// batch's response down to the identifiers that were actually requested.
func (o *Orchestrator) normalizeAll(outcomes []fetchOutcome, capacities map[domain.Source]map[string]float64, summary *domain.RunSummary) {
	for i := range outcomes {
		out := &outcomes[i]
		r := o.resultFor(summary, out.batch.Source)

		if out.err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("%s zone %s: %v", out.batch.SourceType, out.batch.Zone, out.err))
			continue
		}

		r.Summary.TotalAPICalls += out.result.Meta.APICalls
		r.Summary.APIResponseTimeSeconds += out.result.Meta.ResponseTime.Seconds()

		if !out.result.Meta.Success {
			reason := out.result.Meta.Reason
			if reason == "" {
				reason = "no data returned"
			}
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s zone %s: %s", out.batch.SourceType, out.batch.Zone, reason))
			continue
		}

		kept := filterRequested(out.result.Samples, out.batch.Identifiers)
		if dropped := len(out.result.Samples) - len(kept); dropped > 0 {
			o.log.Debugf("%s zone %s: discarded %d samples outside requested identifier set",
				out.batch.Source, out.batch.Zone, dropped)
		}

		res, err := normalization.BuildObservations(kept, normalization.Options{
			Source:     out.batch.Source,
			SourceType: out.batch.SourceType,
			Zone:       out.batch.Zone,
			FetchedAt:  time.Now().UTC(),
			Policy:     o.policy,
			Location:   o.civilZones[out.batch.Source],
			CapacityMW: capacities[out.batch.Source],
		})
		if err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("%s zone %s: normalize: %v", out.batch.SourceType, out.batch.Zone, err))
			continue
		}

		out.observations = res.Observations
		r.Warnings = append(r.Warnings, res.Warnings...)
		if res.Dropped > 0 {
			observability.RecordSamplesDropped(out.batch.Source.String(), res.Dropped)
		}
		if res.Flagged > 0 {
			observability.RecordOutliersFlagged(res.Flagged)
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s zone %s: %d observations flagged as implausible",
				out.batch.SourceType, out.batch.Zone, res.Flagged))
		}
	}
}

// writeAll upserts each outcome's observations grouped per identifier and
// accumulates unit summaries. A failed identifier does not stop the rest.
func (o *Orchestrator) writeAll(ctx context.Context, outcomes []fetchOutcome, summary *domain.RunSummary) {
	for i := range outcomes {
		out := &outcomes[i]
		if len(out.observations) == 0 {
			continue
		}
		r := o.resultFor(summary, out.batch.Source)

		seen := make(map[string]bool, len(out.batch.Identifiers))
		for _, group := range groupByIdentifier(out.observations) {
			id := group[0].Identifier
			seen[id] = true

			unit := o.unitFor(r, id)
			applied, err := o.engine.Apply(ctx, group)
			unit.RecordsStored += applied.Stored
			unit.RecordsUpdated += applied.Updated
			r.RecordsStored += applied.Stored
			r.RecordsUpdated += applied.Updated
			observability.RecordRowsWritten(out.batch.Source.String(), applied.Stored, applied.Updated)
			if err != nil {
				unit.Errors = append(unit.Errors, fmt.Sprintf("write %s..%s: %v",
					out.batch.Start.Format(time.RFC3339), out.batch.End.Format(time.RFC3339), err))
				r.Errors = append(r.Errors, fmt.Sprintf("%s: write failed for %s: %v", out.batch.SourceType, id, err))
			}
		}

		for _, id := range out.batch.Identifiers {
			if !seen[id] {
				r.Warnings = append(r.Warnings, fmt.Sprintf("%s zone %s: no samples for identifier %s",
					out.batch.SourceType, out.batch.Zone, id))
			}
		}
	}
}

// finishResults settles per-source success flags and run totals.
func (o *Orchestrator) finishResults(summary *domain.RunSummary) {
	for _, r := range summary.BySource {
		sort.Slice(r.Units, func(i, j int) bool { return r.Units[i].Identifier < r.Units[j].Identifier })
		r.GenerationUnitsProcessed = len(r.Units)
		r.Success = len(r.Errors) == 0
		summary.TotalRecordsStored += r.RecordsStored
		summary.TotalRecordsUpdated += r.RecordsUpdated
	}
	summary.SourcesProcessed = len(summary.BySource)
}

// checkCompleteness compares each identifier's stored count over the run
// window against a conservative expected minimum. Shortfalls are warnings,
// never errors. Identifiers that only yielded monthly rows are exempt; a
// day-based floor has no meaning for them.
func (o *Orchestrator) checkCompleteness(ctx context.Context, entries []registry.Entry, outcomes []fetchOutcome, start, end time.Time, summary *domain.RunSummary) {
	expected := quality.ExpectedMinimumSamples(start, end)
	if expected == 0 {
		return
	}

	subDaily := make(map[string]bool)
	for i := range outcomes {
		for _, obs := range outcomes[i].observations {
			if obs.PeriodType != domain.PeriodMonth {
				subDaily[obs.Source.String()+"|"+obs.Identifier] = true
			}
		}
	}

	for _, e := range entries {
		if e.Zone == "" || !subDaily[e.Source.String()+"|"+e.Identifier] {
			continue
		}
		count, err := o.store.CountByIdentifier(ctx, e.Source, e.SourceType, e.Identifier, start, end)
		if err != nil {
			r := o.resultFor(summary, e.Source)
			r.Errors = append(r.Errors, fmt.Sprintf("completeness check for %s: %v", e.Identifier, err))
			continue
		}
		if count < expected {
			r := o.resultFor(summary, e.Source)
			r.Warnings = append(r.Warnings, fmt.Sprintf("identifier %s has %d samples in window, expected at least %d",
				e.Identifier, count, expected))
		}
	}
}

// auditFetches writes one fetch history record per batch.
func (o *Orchestrator) auditFetches(ctx context.Context, outcomes []fetchOutcome, summary *domain.RunSummary) {
	if o.history == nil || len(outcomes) == 0 {
		return
	}

	now := time.Now().UTC()
	records := make([]*domain.FetchRecord, 0, len(outcomes))
	for i := range outcomes {
		out := &outcomes[i]
		rec := &domain.FetchRecord{
			FetchID:        uuid.New().String(),
			Source:         out.batch.Source,
			SourceType:     out.batch.SourceType,
			Zone:           out.batch.Zone,
			PeriodStart:    out.batch.Start,
			PeriodEnd:      out.batch.End,
			ResponseTimeMs: uint32(out.elapsed.Milliseconds()),
			CompletedAt:    now,
		}
		switch {
		case out.err != nil:
			rec.Status = domain.FetchStatusFailed
			rec.ErrorMessage = out.err.Error()
		case !out.result.Meta.Success:
			rec.Status = domain.FetchStatusEmpty
			rec.ErrorMessage = out.result.Meta.Reason
		default:
			rec.Status = domain.FetchStatusSuccess
			rec.RecordsFetched = uint32(len(out.result.Samples))
		}
		records = append(records, rec)
	}

	if err := o.history.InsertBulk(ctx, records); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("record fetch history: %v", err))
	}
}

// resultFor returns the per-source result, creating it on first use.
func (o *Orchestrator) resultFor(summary *domain.RunSummary, source domain.Source) *domain.IngestionResult {
	r := summary.BySource[source]
	if r == nil {
		r = &domain.IngestionResult{Source: source, Errors: []string{}}
		summary.BySource[source] = r
	}
	return r
}

// unitFor returns the per-identifier summary within a source result,
// creating it on first use. An identifier touched by several batches
// (e.g. generation and consumption streams) keeps one merged entry.
func (o *Orchestrator) unitFor(r *domain.IngestionResult, identifier string) *domain.IngestionUnitSummary {
	for i := range r.Units {
		if r.Units[i].Identifier == identifier {
			return &r.Units[i]
		}
	}
	r.Units = append(r.Units, domain.IngestionUnitSummary{Identifier: identifier})
	return &r.Units[len(r.Units)-1]
}

// filterRequested keeps only samples whose identifier was requested.
// Sources may over-fetch (zone-wide queries); the excess is discarded here.
func filterRequested(samples []domain.RawSample, identifiers []string) []domain.RawSample {
	wanted := make(map[string]bool, len(identifiers))
	for _, id := range identifiers {
		wanted[id] = true
	}
	kept := make([]domain.RawSample, 0, len(samples))
	for _, s := range samples {
		if wanted[s.Identifier] {
			kept = append(kept, s)
		}
	}
	return kept
}

// groupByIdentifier splits observations into per-identifier groups,
// preserving input order within and across groups.
func groupByIdentifier(obs []*domain.RawObservation) [][]*domain.RawObservation {
	index := make(map[string]int)
	var groups [][]*domain.RawObservation
	for _, o := range obs {
		i, ok := index[o.Identifier]
		if !ok {
			i = len(groups)
			index[o.Identifier] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], o)
	}
	return groups
}

// capacityBySource builds per-source capacity lookups for plausibility
// flagging.
func capacityBySource(entries []registry.Entry) map[domain.Source]map[string]float64 {
	out := make(map[domain.Source]map[string]float64)
	for _, e := range entries {
		if e.CapacityMW <= 0 {
			continue
		}
		if out[e.Source] == nil {
			out[e.Source] = make(map[string]float64)
		}
		out[e.Source][e.Identifier] = e.CapacityMW
	}
	return out
}
