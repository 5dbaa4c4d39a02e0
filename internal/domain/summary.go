package domain

import "time"

// RunState is the phase an ingestion run is in. Transitions are strictly
// forward; ABORTED is terminal and only reachable from PLANNING.
type RunState string

const (
	RunStatePlanning    RunState = "PLANNING"
	RunStateFetching    RunState = "FETCHING"
	RunStateNormalizing RunState = "NORMALIZING"
	RunStateWriting     RunState = "WRITING"
	RunStateSummarizing RunState = "SUMMARIZING"
	RunStateAborted     RunState = "ABORTED"
)

// IngestionUnitSummary is the per-identifier accounting within one source.
type IngestionUnitSummary struct {
	Identifier     string   `json:"identifier"`
	RecordsStored  int      `json:"records_stored"`
	RecordsUpdated int      `json:"records_updated"`
	Errors         []string `json:"errors,omitempty"`
}

// SourceCallStats aggregates the HTTP effort spent on one source.
type SourceCallStats struct {
	TotalAPICalls          int     `json:"total_api_calls"`
	APIResponseTimeSeconds float64 `json:"api_response_time_seconds"`
}

// IngestionResult is the per-source outcome of a run.
type IngestionResult struct {
	Source                   Source                 `json:"source"`
	Success                  bool                   `json:"success"`
	RecordsStored            int                    `json:"records_stored"`
	RecordsUpdated           int                    `json:"records_updated"`
	GenerationUnitsProcessed int                    `json:"generation_units_processed"`
	Units                    []IngestionUnitSummary `json:"units,omitempty"`
	Summary                  SourceCallStats        `json:"summary"`
	Errors                   []string               `json:"errors"`
	Warnings                 []string               `json:"warnings,omitempty"`
}

// RunSummary is the unified outcome of one orchestrated ingestion run
// across all sources in scope.
type RunSummary struct {
	RunID               string                      `json:"run_id"`
	State               RunState                    `json:"state"`
	Success             bool                        `json:"success"`
	TotalRecordsStored  int                         `json:"total_records_stored"`
	TotalRecordsUpdated int                         `json:"total_records_updated"`
	SourcesProcessed    int                         `json:"sources_processed"`
	BySource            map[Source]*IngestionResult `json:"by_source"`
	Errors              []string                    `json:"errors"`
	Warnings            []string                    `json:"warnings,omitempty"`
	StartedAt           time.Time                   `json:"started_at"`
	CompletedAt         time.Time                   `json:"completed_at"`
}
