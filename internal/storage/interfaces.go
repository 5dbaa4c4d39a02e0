package storage

import (
	"context"
	"time"

	"grid-ingest-lab/internal/domain"
)

// ObservationStore provides access to raw_observations storage.
type ObservationStore interface {
	// UpsertBatch inserts or updates observations keyed by
	// (source, source_type, identifier, period_start). Returns the number
	// of rows inserted and the number of existing rows updated. The batch
	// is applied atomically.
	UpsertBatch(ctx context.Context, obs []*domain.RawObservation) (stored, updated int, err error)

	// GetByKey retrieves one observation. Returns ErrNotFound if not exists.
	GetByKey(ctx context.Context, source domain.Source, sourceType domain.SourceType, identifier string, periodStart time.Time) (*domain.RawObservation, error)

	// ListByIdentifier retrieves observations for one identifier with
	// period_start within [start, end), ordered by period_start ASC.
	ListByIdentifier(ctx context.Context, source domain.Source, sourceType domain.SourceType, identifier string, start, end time.Time) ([]*domain.RawObservation, error)

	// CountByIdentifier counts observations for one identifier with
	// period_start within [start, end).
	CountByIdentifier(ctx context.Context, source domain.Source, sourceType domain.SourceType, identifier string, start, end time.Time) (int, error)
}

// FetchHistoryStore provides access to fetch_history storage.
type FetchHistoryStore interface {
	// Insert records one batch fetch outcome.
	Insert(ctx context.Context, rec *domain.FetchRecord) error

	// InsertBulk records multiple fetch outcomes in one batch.
	InsertBulk(ctx context.Context, recs []*domain.FetchRecord) error

	// GetBySource retrieves fetch records for a source with completed_at
	// within [start, end), ordered by completed_at ASC.
	GetBySource(ctx context.Context, source domain.Source, start, end time.Time) ([]*domain.FetchRecord, error)

	// GetRecent retrieves the most recent fetch records across all
	// sources, newest first, up to limit rows.
	GetRecent(ctx context.Context, limit int) ([]*domain.FetchRecord, error)
}
