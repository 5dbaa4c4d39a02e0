package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/storage"
)

// ObservationStore implements storage.ObservationStore using PostgreSQL.
type ObservationStore struct {
	pool *Pool
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(pool *Pool) *ObservationStore {
	return &ObservationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

// UpsertBatch inserts or updates observations by their uniqueness key
// inside a single transaction. When an update changes the stored value,
// the previous value is copied into the new row's data under
// previous_value; a re-ingest with an unchanged value leaves no trace
// beyond the advanced updated_at.
func (s *ObservationStore) UpsertBatch(ctx context.Context, observations []*domain.RawObservation) (int, int, error) {
	if len(observations) == 0 {
		return 0, 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO raw_observations (
			source, source_type, identifier,
			period_start, period_end, period_type,
			value_extracted, unit, data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source, source_type, identifier, period_start)
		DO UPDATE SET
			value_extracted = EXCLUDED.value_extracted,
			period_end = EXCLUDED.period_end,
			period_type = EXCLUDED.period_type,
			unit = EXCLUDED.unit,
			data = CASE
				WHEN raw_observations.value_extracted IS DISTINCT FROM EXCLUDED.value_extracted
					THEN EXCLUDED.data || jsonb_build_object('previous_value', raw_observations.value_extracted)
				ELSE EXCLUDED.data
			END,
			updated_at = now()
		RETURNING (xmax = 0) AS inserted
	`

	var stored, updated int
	for _, o := range observations {
		data, err := json.Marshal(o.Data)
		if err != nil {
			return 0, 0, fmt.Errorf("marshal observation data: %w", err)
		}

		var inserted bool
		err = tx.QueryRow(ctx, query,
			o.Source, o.SourceType, o.Identifier,
			o.PeriodStart, o.PeriodEnd, o.PeriodType,
			o.ValueExtracted, o.Unit, data,
		).Scan(&inserted)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert observation %s/%s: %w", o.Source, o.Identifier, err)
		}

		if inserted {
			stored++
		} else {
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit tx: %w", err)
	}

	return stored, updated, nil
}

// GetByKey retrieves one observation by its uniqueness key. Returns
// storage.ErrNotFound if no row matches.
func (s *ObservationStore) GetByKey(ctx context.Context, source domain.Source, sourceType domain.SourceType, identifier string, periodStart time.Time) (*domain.RawObservation, error) {
	query := `
		SELECT
			source, source_type, identifier,
			period_start, period_end, period_type,
			value_extracted, unit, data,
			created_at, updated_at
		FROM raw_observations
		WHERE source = $1 AND source_type = $2 AND identifier = $3 AND period_start = $4
	`

	row := s.pool.QueryRow(ctx, query, source, sourceType, identifier, periodStart)
	o, err := scanObservation(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get observation by key: %w", err)
	}
	return o, nil
}

// ListByIdentifier retrieves observations for one identifier with
// period_start in [start, end), ordered by period_start.
func (s *ObservationStore) ListByIdentifier(ctx context.Context, source domain.Source, sourceType domain.SourceType, identifier string, start, end time.Time) ([]*domain.RawObservation, error) {
	query := `
		SELECT
			source, source_type, identifier,
			period_start, period_end, period_type,
			value_extracted, unit, data,
			created_at, updated_at
		FROM raw_observations
		WHERE source = $1 AND source_type = $2 AND identifier = $3
			AND period_start >= $4 AND period_start < $5
		ORDER BY period_start ASC
	`

	rows, err := s.pool.Query(ctx, query, source, sourceType, identifier, start, end)
	if err != nil {
		return nil, fmt.Errorf("list observations by identifier: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// CountByIdentifier counts observations for one identifier with
// period_start in [start, end).
func (s *ObservationStore) CountByIdentifier(ctx context.Context, source domain.Source, sourceType domain.SourceType, identifier string, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM raw_observations
		WHERE source = $1 AND source_type = $2 AND identifier = $3
			AND period_start >= $4 AND period_start < $5
	`

	var count int
	err := s.pool.QueryRow(ctx, query, source, sourceType, identifier, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count observations by identifier: %w", err)
	}
	return count, nil
}

// scanObservation scans a single row into a RawObservation.
func scanObservation(row pgx.Row) (*domain.RawObservation, error) {
	var o domain.RawObservation
	var data []byte

	err := row.Scan(
		&o.Source, &o.SourceType, &o.Identifier,
		&o.PeriodStart, &o.PeriodEnd, &o.PeriodType,
		&o.ValueExtracted, &o.Unit, &data,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &o.Data); err != nil {
		return nil, fmt.Errorf("unmarshal observation data: %w", err)
	}

	return &o, nil
}

// scanObservations scans multiple rows into a slice of RawObservation.
func scanObservations(rows pgx.Rows) ([]*domain.RawObservation, error) {
	var observations []*domain.RawObservation

	for rows.Next() {
		var o domain.RawObservation
		var data []byte

		err := rows.Scan(
			&o.Source, &o.SourceType, &o.Identifier,
			&o.PeriodStart, &o.PeriodEnd, &o.PeriodType,
			&o.ValueExtracted, &o.Unit, &data,
			&o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}

		if err := json.Unmarshal(data, &o.Data); err != nil {
			return nil, fmt.Errorf("unmarshal observation data: %w", err)
		}

		observations = append(observations, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}

	return observations, nil
}
