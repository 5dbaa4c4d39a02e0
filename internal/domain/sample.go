package domain

import "time"

// RawSample is one reading as decoded from a source response, before
// normalization. Value may be NaN when the source publishes a
// missing-value marker; normalization drops those rows.
type RawSample struct {
	Identifier string
	Value      float64
	Unit       string

	// Timestamp is the period start in UTC, for sources that publish
	// absolute timestamps. Zero when the sample carries a settlement
	// marker instead.
	Timestamp time.Time

	// SettlementDate (ISO local date) and SettlementPeriod (1-based
	// half-hour index) mark samples from settlement-period sources.
	SettlementDate   string
	SettlementPeriod int

	// PeriodType is the source-declared resolution, empty when the source
	// does not declare one and it must be inferred.
	PeriodType PeriodType

	Direction      string
	ProductionType string
	Area           string
}

// HasSettlementMarker reports whether the sample is indexed by a local
// settlement date and period rather than an absolute timestamp.
func (s *RawSample) HasSettlementMarker() bool {
	return s.SettlementDate != "" && s.SettlementPeriod > 0
}

// FetchMetadata summarizes one adapter call for audit and reporting.
type FetchMetadata struct {
	// Success is false when the source returned no usable data; Reason
	// then explains why. "No data" is not an error.
	Success bool

	// Reason is set when the source returned an empty result with an
	// explanation (e.g. an acknowledgement document).
	Reason string

	// APICalls counts HTTP requests issued, including retries.
	APICalls int

	// ResponseTime is the total wall time spent on source requests.
	ResponseTime time.Duration
}

// FetchResult is what an adapter returns for one batch request.
type FetchResult struct {
	Samples []RawSample
	Meta    FetchMetadata
}
