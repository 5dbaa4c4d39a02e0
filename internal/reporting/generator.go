package reporting

import (
	"context"
	"sort"
	"time"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/storage"
)

// recentFetchLimit bounds the audit section of a report.
const recentFetchLimit = 20

// Generator builds reports from run summaries and the fetch audit store.
type Generator struct {
	history storage.FetchHistoryStore // nil skips the recent-fetch section
	now     func() time.Time
}

// NewGenerator creates a report generator. history may be nil when fetch
// auditing is disabled.
func NewGenerator(history storage.FetchHistoryStore) *Generator {
	return &Generator{
		history: history,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate renders a run summary into a report.
func (g *Generator) Generate(ctx context.Context, summary *domain.RunSummary) (*Report, error) {
	r := &Report{
		GeneratedAt:      g.now(),
		RunID:            summary.RunID,
		State:            string(summary.State),
		Success:          summary.Success,
		StartedAt:        summary.StartedAt,
		CompletedAt:      summary.CompletedAt,
		RecordsStored:    summary.TotalRecordsStored,
		RecordsUpdated:   summary.TotalRecordsUpdated,
		SourcesProcessed: summary.SourcesProcessed,
		Sources:          buildSourceRows(summary),
		Units:            buildUnitRows(summary),
		Errors:           collectErrors(summary),
		Warnings:         collectWarnings(summary),
	}

	if g.history != nil {
		records, err := g.history.GetRecent(ctx, recentFetchLimit)
		if err != nil {
			return nil, err
		}
		r.RecentFetches = buildFetchRows(records)
	}

	return r, nil
}

func buildSourceRows(summary *domain.RunSummary) []SourceRow {
	rows := make([]SourceRow, 0, len(summary.BySource))
	for source, res := range summary.BySource {
		rows = append(rows, SourceRow{
			Source:              source.String(),
			Success:             res.Success,
			Units:               res.GenerationUnitsProcessed,
			RecordsStored:       res.RecordsStored,
			RecordsUpdated:      res.RecordsUpdated,
			APICalls:            res.Summary.TotalAPICalls,
			ResponseTimeSeconds: res.Summary.APIResponseTimeSeconds,
			Errors:              len(res.Errors),
			Warnings:            len(res.Warnings),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Source < rows[j].Source
	})
	return rows
}

func buildUnitRows(summary *domain.RunSummary) []UnitRow {
	var rows []UnitRow
	for source, res := range summary.BySource {
		for _, u := range res.Units {
			rows = append(rows, UnitRow{
				Source:         source.String(),
				Identifier:     u.Identifier,
				RecordsStored:  u.RecordsStored,
				RecordsUpdated: u.RecordsUpdated,
				Errors:         len(u.Errors),
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Source != rows[j].Source {
			return rows[i].Source < rows[j].Source
		}
		return rows[i].Identifier < rows[j].Identifier
	})
	return rows
}

func buildFetchRows(records []*domain.FetchRecord) []FetchRow {
	rows := make([]FetchRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, FetchRow{
			Source:         rec.Source.String(),
			SourceType:     rec.SourceType.String(),
			Zone:           rec.Zone,
			Status:         string(rec.Status),
			Records:        rec.RecordsFetched,
			ResponseTimeMs: rec.ResponseTimeMs,
			CompletedAt:    rec.CompletedAt,
		})
	}
	return rows
}

// collectErrors merges run-level errors with per-source ones, prefixing the
// latter with their source so the report reads unambiguously.
func collectErrors(summary *domain.RunSummary) []string {
	out := append([]string{}, summary.Errors...)
	for _, source := range sortedSources(summary) {
		for _, e := range summary.BySource[source].Errors {
			out = append(out, source.String()+": "+e)
		}
	}
	return out
}

func collectWarnings(summary *domain.RunSummary) []string {
	out := append([]string{}, summary.Warnings...)
	for _, source := range sortedSources(summary) {
		for _, w := range summary.BySource[source].Warnings {
			out = append(out, source.String()+": "+w)
		}
	}
	return out
}

func sortedSources(summary *domain.RunSummary) []domain.Source {
	sources := make([]domain.Source, 0, len(summary.BySource))
	for s := range summary.BySource {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}
