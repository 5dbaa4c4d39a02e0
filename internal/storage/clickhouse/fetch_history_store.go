package clickhouse

import (
	"context"
	"fmt"
	"time"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/storage"
)

// FetchHistoryStore implements storage.FetchHistoryStore using ClickHouse.
// fetch_history is append-only; MergeTree does not enforce uniqueness and
// audit rows are never updated.
type FetchHistoryStore struct {
	conn *Conn
}

// NewFetchHistoryStore creates a new FetchHistoryStore.
func NewFetchHistoryStore(conn *Conn) *FetchHistoryStore {
	return &FetchHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FetchHistoryStore = (*FetchHistoryStore)(nil)

// Insert records one batch fetch outcome.
func (s *FetchHistoryStore) Insert(ctx context.Context, rec *domain.FetchRecord) error {
	return s.InsertBulk(ctx, []*domain.FetchRecord{rec})
}

// InsertBulk records multiple fetch outcomes in one batch.
func (s *FetchHistoryStore) InsertBulk(ctx context.Context, recs []*domain.FetchRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO fetch_history (
			fetch_id, source, source_type, zone,
			period_start, period_end, status,
			records_fetched, error_message, response_time_ms, completed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range recs {
		err = batch.Append(
			r.FetchID, string(r.Source), string(r.SourceType), r.Zone,
			r.PeriodStart, r.PeriodEnd, string(r.Status),
			r.RecordsFetched, r.ErrorMessage, r.ResponseTimeMs, r.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySource retrieves fetch records for a source with completed_at in
// [start, end), ordered by completed_at ASC.
func (s *FetchHistoryStore) GetBySource(ctx context.Context, source domain.Source, start, end time.Time) ([]*domain.FetchRecord, error) {
	query := `
		SELECT fetch_id, source, source_type, zone,
			period_start, period_end, status,
			records_fetched, error_message, response_time_ms, completed_at
		FROM fetch_history
		WHERE source = ? AND completed_at >= ? AND completed_at < ?
		ORDER BY completed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, string(source), start, end)
	if err != nil {
		return nil, fmt.Errorf("query fetch history by source: %w", err)
	}
	defer rows.Close()

	return scanFetchRecords(rows)
}

// GetRecent retrieves the most recent fetch records across all sources,
// newest first.
func (s *FetchHistoryStore) GetRecent(ctx context.Context, limit int) ([]*domain.FetchRecord, error) {
	query := `
		SELECT fetch_id, source, source_type, zone,
			period_start, period_end, status,
			records_fetched, error_message, response_time_ms, completed_at
		FROM fetch_history
		ORDER BY completed_at DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent fetch history: %w", err)
	}
	defer rows.Close()

	return scanFetchRecords(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanFetchRecords scans multiple rows into a slice of FetchRecord.
func scanFetchRecords(rows chRows) ([]*domain.FetchRecord, error) {
	var records []*domain.FetchRecord

	for rows.Next() {
		var r domain.FetchRecord
		var source, sourceType, status string

		err := rows.Scan(
			&r.FetchID, &source, &sourceType, &r.Zone,
			&r.PeriodStart, &r.PeriodEnd, &status,
			&r.RecordsFetched, &r.ErrorMessage, &r.ResponseTimeMs, &r.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fetch history row: %w", err)
		}

		r.Source = domain.Source(source)
		r.SourceType = domain.SourceType(sourceType)
		r.Status = domain.FetchStatus(status)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fetch history rows: %w", err)
	}

	return records, nil
}
