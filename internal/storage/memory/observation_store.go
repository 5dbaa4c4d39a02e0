package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/storage"
)

// ObservationStore is an in-memory implementation of storage.ObservationStore.
// Mirrors the Postgres upsert semantics, including previous_value capture
// on value revisions.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RawObservation // keyed by observation key
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string]*domain.RawObservation),
	}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

// UpsertBatch inserts or updates observations by their uniqueness key.
// The whole batch is applied under one lock, so a batch is never observed
// half-applied.
func (s *ObservationStore) UpsertBatch(_ context.Context, observations []*domain.RawObservation) (int, int, error) {
	if len(observations) == 0 {
		return 0, 0, nil
	}

	for _, o := range observations {
		if o == nil || o.Identifier == "" || !o.Source.IsValid() || !o.SourceType.IsValid() {
			return 0, 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var stored, updated int

	for _, o := range observations {
		key := o.Key()
		obsCopy := *o

		existing, exists := s.data[key]
		if exists {
			obsCopy.Data.PreviousValue = nil
			if existing.ValueExtracted != o.ValueExtracted {
				prev := existing.ValueExtracted
				obsCopy.Data.PreviousValue = &prev
			}
			obsCopy.CreatedAt = existing.CreatedAt
			obsCopy.UpdatedAt = now
			updated++
		} else {
			obsCopy.CreatedAt = now
			obsCopy.UpdatedAt = now
			stored++
		}

		s.data[key] = &obsCopy
	}

	return stored, updated, nil
}

// GetByKey retrieves one observation. Returns ErrNotFound if not exists.
func (s *ObservationStore) GetByKey(_ context.Context, source domain.Source, sourceType domain.SourceType, identifier string, periodStart time.Time) (*domain.RawObservation, error) {
	probe := domain.RawObservation{
		Source:      source,
		SourceType:  sourceType,
		Identifier:  identifier,
		PeriodStart: periodStart,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.data[probe.Key()]
	if !exists {
		return nil, storage.ErrNotFound
	}

	obsCopy := *o
	return &obsCopy, nil
}

// ListByIdentifier retrieves observations for one identifier with
// period_start in [start, end), ordered by period_start ASC.
func (s *ObservationStore) ListByIdentifier(_ context.Context, source domain.Source, sourceType domain.SourceType, identifier string, start, end time.Time) ([]*domain.RawObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawObservation
	for _, o := range s.data {
		if o.Source != source || o.SourceType != sourceType || o.Identifier != identifier {
			continue
		}
		if o.PeriodStart.Before(start) || !o.PeriodStart.Before(end) {
			continue
		}
		obsCopy := *o
		result = append(result, &obsCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PeriodStart.Before(result[j].PeriodStart)
	})

	return result, nil
}

// CountByIdentifier counts observations for one identifier with
// period_start in [start, end).
func (s *ObservationStore) CountByIdentifier(_ context.Context, source domain.Source, sourceType domain.SourceType, identifier string, start, end time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, o := range s.data {
		if o.Source != source || o.SourceType != sourceType || o.Identifier != identifier {
			continue
		}
		if o.PeriodStart.Before(start) || !o.PeriodStart.Before(end) {
			continue
		}
		count++
	}

	return count, nil
}
