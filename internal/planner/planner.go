package planner

import (
	"fmt"
	"sort"
	"time"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/registry"
)

// Plan groups registry entries into the fewest batch requests the sources
// can serve: one request per (source, source type, zone, production
// filter). Identifiers within a batch are de-duplicated and sorted;
// batches come out in a deterministic order. Entries without a resolvable
// zone cannot be planned and are reported as errors, not silently dropped.
func Plan(entries []registry.Entry, start, end time.Time) ([]domain.SourceBatchRequest, []string) {
	type batchKey struct {
		source domain.Source
		stype  domain.SourceType
		zone   string
		filter string
	}

	groups := make(map[batchKey]map[string]bool)
	var errs []string
	for _, e := range entries {
		if e.Zone == "" {
			errs = append(errs, fmt.Sprintf("%s %s: no zone resolved", e.Source, e.Identifier))
			continue
		}
		k := batchKey{e.Source, e.SourceType, e.Zone, e.ProductionFilter}
		if groups[k] == nil {
			groups[k] = make(map[string]bool)
		}
		groups[k][e.Identifier] = true
	}

	keys := make([]batchKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].source != keys[j].source {
			return keys[i].source < keys[j].source
		}
		if keys[i].stype != keys[j].stype {
			return keys[i].stype < keys[j].stype
		}
		if keys[i].zone != keys[j].zone {
			return keys[i].zone < keys[j].zone
		}
		return keys[i].filter < keys[j].filter
	})

	out := make([]domain.SourceBatchRequest, 0, len(keys))
	for _, k := range keys {
		ids := make([]string, 0, len(groups[k]))
		for id := range groups[k] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out = append(out, domain.SourceBatchRequest{
			Source:           k.source,
			SourceType:       k.stype,
			Zone:             k.zone,
			Identifiers:      ids,
			Start:            start,
			End:              end,
			ProductionFilter: k.filter,
		})
	}
	return out, errs
}
