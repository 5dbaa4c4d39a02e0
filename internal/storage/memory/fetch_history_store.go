package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/storage"
)

// FetchHistoryStore is an in-memory implementation of storage.FetchHistoryStore.
// Records are append-only.
type FetchHistoryStore struct {
	mu   sync.RWMutex
	data []*domain.FetchRecord
}

// NewFetchHistoryStore creates a new in-memory fetch history store.
func NewFetchHistoryStore() *FetchHistoryStore {
	return &FetchHistoryStore{}
}

// Compile-time interface check.
var _ storage.FetchHistoryStore = (*FetchHistoryStore)(nil)

// Insert appends one fetch record.
func (s *FetchHistoryStore) Insert(_ context.Context, record *domain.FetchRecord) error {
	if record == nil || record.FetchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *record
	s.data = append(s.data, &recCopy)
	return nil
}

// InsertBulk appends multiple fetch records.
func (s *FetchHistoryStore) InsertBulk(_ context.Context, records []*domain.FetchRecord) error {
	if len(records) == 0 {
		return nil
	}

	for _, r := range records {
		if r == nil || r.FetchID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		recCopy := *r
		s.data = append(s.data, &recCopy)
	}
	return nil
}

// GetBySource retrieves fetch records for one source with completed_at
// in [start, end), ordered by completed_at ASC.
func (s *FetchHistoryStore) GetBySource(_ context.Context, source domain.Source, start, end time.Time) ([]*domain.FetchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FetchRecord
	for _, r := range s.data {
		if r.Source != source {
			continue
		}
		if r.CompletedAt.Before(start) || !r.CompletedAt.Before(end) {
			continue
		}
		recCopy := *r
		result = append(result, &recCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CompletedAt.Before(result[j].CompletedAt)
	})

	return result, nil
}

// GetRecent retrieves the most recent fetch records across all sources,
// newest first.
func (s *FetchHistoryStore) GetRecent(_ context.Context, limit int) ([]*domain.FetchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.FetchRecord, 0, len(s.data))
	for _, r := range s.data {
		recCopy := *r
		result = append(result, &recCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CompletedAt.After(result[j].CompletedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
