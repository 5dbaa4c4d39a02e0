package normalization

import (
	"sort"
	"time"

	"grid-ingest-lab/internal/domain"
)

// ResolutionPolicy controls the scope over which a resolution is inferred
// for samples that do not declare one.
type ResolutionPolicy string

const (
	// PolicyPerIdentifier infers a resolution from each identifier's own
	// timestamps. Identifiers with fewer than two samples fall back to
	// the batch-wide inference.
	PolicyPerIdentifier ResolutionPolicy = "per_identifier"

	// PolicyPerBatch infers a single resolution from all timestamps in
	// the batch and applies it to every identifier.
	PolicyPerBatch ResolutionPolicy = "per_batch"
)

// IsValid reports whether p is a known policy.
func (p ResolutionPolicy) IsValid() bool {
	return p == PolicyPerIdentifier || p == PolicyPerBatch
}

// InferResolution derives a period type from the smallest positive gap
// between consecutive timestamps:
//
//   - gap <= 15 minutes -> PT15M
//   - gap <= 30 minutes -> PT30M
//   - otherwise         -> PT60M
//
// Fewer than two timestamps yield PT60M. Zero and negative gaps
// (duplicates, out-of-order input) are ignored.
func InferResolution(timestamps []time.Time) domain.PeriodType {
	if len(timestamps) < 2 {
		return domain.PeriodPT60M
	}

	sorted := make([]time.Time, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	minGap := time.Duration(0)
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Sub(sorted[i-1])
		if gap <= 0 {
			continue
		}
		if minGap == 0 || gap < minGap {
			minGap = gap
		}
	}
	if minGap == 0 {
		return domain.PeriodPT60M
	}

	switch {
	case minGap <= 15*time.Minute:
		return domain.PeriodPT15M
	case minGap <= 30*time.Minute:
		return domain.PeriodPT30M
	default:
		return domain.PeriodPT60M
	}
}
