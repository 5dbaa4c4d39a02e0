package domain

import "time"

// FetchStatus classifies the outcome of one upstream fetch.
type FetchStatus string

const (
	FetchStatusSuccess FetchStatus = "success"
	FetchStatusEmpty   FetchStatus = "empty"
	FetchStatusFailed  FetchStatus = "failed"
)

// FetchRecord is one audit row describing a single batch fetch against an
// upstream source. Stored in ClickHouse for fetch-history analytics.
type FetchRecord struct {
	FetchID        string
	Source         Source
	SourceType     SourceType
	Zone           string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Status         FetchStatus
	RecordsFetched uint32
	ErrorMessage   string
	ResponseTimeMs uint32
	CompletedAt    time.Time
}
