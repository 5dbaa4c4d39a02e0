package normalization

import (
	"fmt"
	"math"
	"sort"
	"time"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/quality"
)

// Options configures one normalization pass over a fetched batch.
type Options struct {
	Source     domain.Source
	SourceType domain.SourceType
	Zone       string
	FetchedAt  time.Time

	// Policy selects the inference scope for samples without a declared
	// resolution. Defaults to PolicyPerIdentifier.
	Policy ResolutionPolicy

	// Location is the civil time zone used to resolve settlement-marker
	// samples. Required when the batch contains any.
	Location *time.Location

	// CapacityMW maps identifiers to installed capacity in MW for
	// plausibility flagging. Identifiers without an entry skip the
	// capacity check.
	CapacityMW map[string]float64
}

// Result carries the built observations plus per-batch accounting.
type Result struct {
	Observations []*domain.RawObservation

	// Dropped counts samples removed from the batch: non-numeric values
	// and samples with no usable time reference.
	Dropped int

	// Flagged counts observations that received at least one outlier flag.
	Flagged int

	Warnings []string
}

// BuildObservations transforms decoded samples into storage-ready
// observations:
//
//   - samples with NaN or infinite values are dropped, not flagged
//   - settlement markers resolve to UTC period starts via the civil zone
//   - samples without a declared resolution get one inferred from
//     timestamp spacing, scoped by the resolution policy
//   - plausibility flags are attached per sample
//
// Identifiers are processed in sorted order; sample order within an
// identifier is preserved.
func BuildObservations(samples []domain.RawSample, opts Options) (*Result, error) {
	if !opts.Source.IsValid() {
		return nil, fmt.Errorf("invalid source %q", opts.Source)
	}
	if !opts.SourceType.IsValid() {
		return nil, fmt.Errorf("invalid source type %q", opts.SourceType)
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyPerIdentifier
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("invalid resolution policy %q", policy)
	}
	fetchedAt := opts.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	res := &Result{}

	groups := make(map[string][]int)
	for i, s := range samples {
		if s.Identifier == "" {
			res.Dropped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: dropped sample without identifier", opts.Source))
			continue
		}
		groups[s.Identifier] = append(groups[s.Identifier], i)
	}
	order := make([]string, 0, len(groups))
	for id := range groups {
		order = append(order, id)
	}
	sort.Strings(order)

	inferred := inferResolutions(samples, groups, order, policy)

	for _, id := range order {
		capacity := opts.CapacityMW[id]
		for _, i := range groups[id] {
			s := samples[i]
			if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
				res.Dropped++
				continue
			}

			var start time.Time
			var ptype domain.PeriodType
			switch {
			case s.HasSettlementMarker():
				if opts.Location == nil {
					return nil, fmt.Errorf("%s: settlement samples require a civil time zone", opts.Source)
				}
				var err error
				start, err = SettlementPeriodStart(s.SettlementDate, s.SettlementPeriod, opts.Location)
				if err != nil {
					res.Dropped++
					res.Warnings = append(res.Warnings, fmt.Sprintf("%s %s: %v", opts.Source, id, err))
					continue
				}
				if n, nerr := SettlementPeriodsInDay(s.SettlementDate, opts.Location); nerr == nil && s.SettlementPeriod > n {
					res.Warnings = append(res.Warnings, fmt.Sprintf("%s %s: settlement period %d beyond %d periods on %s",
						opts.Source, id, s.SettlementPeriod, n, s.SettlementDate))
				}
				ptype = domain.PeriodPT30M
			case !s.Timestamp.IsZero():
				start = s.Timestamp.UTC()
				ptype = s.PeriodType
				if ptype == "" {
					ptype = inferred[id]
				}
			default:
				res.Dropped++
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s %s: dropped sample with no time reference", opts.Source, id))
				continue
			}

			area := s.Area
			if area == "" {
				area = opts.Zone
			}
			flags := quality.Flag(s.Value, capacity)
			if len(flags) > 0 {
				res.Flagged++
			}

			res.Observations = append(res.Observations, &domain.RawObservation{
				Source:         opts.Source,
				SourceType:     opts.SourceType,
				Identifier:     id,
				PeriodStart:    start,
				PeriodEnd:      ptype.End(start),
				PeriodType:     ptype,
				ValueExtracted: s.Value,
				Unit:           s.Unit,
				Data: domain.ObservationData{
					Area:             area,
					SettlementDate:   s.SettlementDate,
					SettlementPeriod: s.SettlementPeriod,
					Direction:        s.Direction,
					ProductionType:   s.ProductionType,
					Outliers:         flags,
					FetchedAt:        fetchedAt,
				},
			})
		}
	}
	return res, nil
}

// inferResolutions computes the fallback resolution for each identifier
// from the timestamps of its undeclared samples. Under PolicyPerIdentifier
// an identifier with fewer than two such timestamps borrows the batch-wide
// inference when the batch has enough.
func inferResolutions(samples []domain.RawSample, groups map[string][]int, order []string, policy ResolutionPolicy) map[string]domain.PeriodType {
	perID := make(map[string][]time.Time)
	var batch []time.Time
	for id, idxs := range groups {
		for _, i := range idxs {
			s := samples[i]
			if s.PeriodType != "" || s.HasSettlementMarker() || s.Timestamp.IsZero() {
				continue
			}
			perID[id] = append(perID[id], s.Timestamp)
			batch = append(batch, s.Timestamp)
		}
	}

	batchRes := InferResolution(batch)
	out := make(map[string]domain.PeriodType, len(order))
	for _, id := range order {
		if policy == PolicyPerBatch {
			out[id] = batchRes
			continue
		}
		ts := perID[id]
		if len(ts) < 2 && len(batch) >= 2 {
			out[id] = batchRes
			continue
		}
		out[id] = InferResolution(ts)
	}
	return out
}
