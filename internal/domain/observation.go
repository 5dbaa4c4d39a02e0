package domain

import (
	"fmt"
	"time"
)

// OutlierFlag is a non-fatal annotation on a stored sample indicating it
// exceeds a physically plausible bound.
type OutlierFlag struct {
	Rule     string  `json:"rule"`
	Severity string  `json:"severity"`
	Ratio    float64 `json:"ratio,omitempty"`
}

// ObservationData is the source-specific payload stored alongside an
// observation. Keys are documented per source; absent fields are omitted
// from the serialized form.
type ObservationData struct {
	// Area is the market zone or area code the batch query covered.
	Area string `json:"area,omitempty"`

	// SettlementDate and SettlementPeriod carry the original local-calendar
	// marker for sources that index readings by settlement period.
	SettlementDate   string `json:"settlement_date,omitempty"`
	SettlementPeriod int    `json:"settlement_period,omitempty"`

	// Direction distinguishes generation from consumption readings.
	Direction string `json:"direction,omitempty"`

	// ProductionType is the source-native production classification
	// (e.g. an ENTSOE psrType or an EIA fuel code).
	ProductionType string `json:"production_type,omitempty"`

	// PreviousValue holds the prior value_extracted at the moment it was
	// overwritten by a revision. Set by the store, never by callers.
	PreviousValue *float64 `json:"previous_value,omitempty"`

	// Outliers carries the quality flags attached during normalization.
	Outliers []OutlierFlag `json:"outliers,omitempty"`

	// FetchedAt records when the batch that produced this row was fetched.
	FetchedAt time.Time `json:"fetched_at"`
}

// RawObservation is one measured interval from one source.
// Corresponds to the raw_observations table in PostgreSQL.
type RawObservation struct {
	Source         Source
	SourceType     SourceType
	Identifier     string // source-native unit/plant code
	PeriodStart    time.Time
	PeriodEnd      time.Time
	PeriodType     PeriodType
	ValueExtracted float64
	Unit           string
	Data           ObservationData
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Key returns the uniqueness key (source, source_type, identifier,
// period_start). Re-ingesting the same key updates in place.
func (o *RawObservation) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", o.Source, o.SourceType, o.Identifier, o.PeriodStart.UTC().Unix())
}
