package reporting

import "time"

// Report is the operator-facing view of one ingestion run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	State       string
	Success     bool
	StartedAt   time.Time
	CompletedAt time.Time

	// Totals across all sources
	RecordsStored    int
	RecordsUpdated   int
	SourcesProcessed int

	// Per-source rows (sorted by source)
	Sources []SourceRow

	// Per-identifier rows (sorted by source, identifier)
	Units []UnitRow

	// Recent fetch attempts from the audit store, newest first.
	// Empty when auditing is disabled.
	RecentFetches []FetchRow

	// Run-level errors and warnings, already attributed to their origin.
	Errors   []string
	Warnings []string
}

// SourceRow summarizes one source's outcome.
type SourceRow struct {
	Source              string
	Success             bool
	Units               int
	RecordsStored       int
	RecordsUpdated      int
	APICalls            int
	ResponseTimeSeconds float64
	Errors              int
	Warnings            int
}

// UnitRow summarizes one identifier's write accounting.
type UnitRow struct {
	Source         string
	Identifier     string
	RecordsStored  int
	RecordsUpdated int
	Errors         int
}

// FetchRow is one audit record rendered for review.
type FetchRow struct {
	Source         string
	SourceType     string
	Zone           string
	Status         string
	Records        uint32
	ResponseTimeMs uint32
	CompletedAt    time.Time
}
