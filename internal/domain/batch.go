package domain

import "time"

// SourceBatchRequest is one unit of fetch work: a set of identifiers that
// share a source, source type and zone, over a single time range.
type SourceBatchRequest struct {
	Source      Source
	SourceType  SourceType
	Zone        string
	Identifiers []string
	Start       time.Time
	End         time.Time

	// ProductionFilter restricts the query to one production
	// classification when the source supports filtering (e.g. EIA fuel
	// codes). Empty means no filter.
	ProductionFilter string
}
