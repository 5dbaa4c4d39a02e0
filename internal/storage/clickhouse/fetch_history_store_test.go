package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid-ingest-lab/internal/domain"
)

func testFetchRecord(fetchID string, source domain.Source, completedAt time.Time) *domain.FetchRecord {
	return &domain.FetchRecord{
		FetchID:        fetchID,
		Source:         source,
		SourceType:     domain.SourceTypeAPI,
		Zone:           "DE_LU",
		PeriodStart:    completedAt.Add(-time.Hour),
		PeriodEnd:      completedAt,
		Status:         domain.FetchStatusSuccess,
		RecordsFetched: 4,
		ResponseTimeMs: 180,
		CompletedAt:    completedAt,
	}
}

func TestFetchHistoryStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFetchHistoryStore(conn)
	ctx := context.Background()

	// Empty insert is a no-op
	err := store.InsertBulk(ctx, nil)
	assert.NoError(t, err)

	completedAt := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	records := []*domain.FetchRecord{
		testFetchRecord("fetch-1", domain.SourceENTSOE, completedAt),
	}

	err = store.InsertBulk(ctx, records)
	require.NoError(t, err)

	got, err := store.GetBySource(ctx, domain.SourceENTSOE, completedAt.Add(-time.Minute), completedAt.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "fetch-1", got[0].FetchID)
	assert.Equal(t, domain.SourceENTSOE, got[0].Source)
	assert.Equal(t, domain.SourceTypeAPI, got[0].SourceType)
	assert.Equal(t, "DE_LU", got[0].Zone)
	assert.Equal(t, domain.FetchStatusSuccess, got[0].Status)
	assert.Equal(t, uint32(4), got[0].RecordsFetched)
	assert.Equal(t, uint32(180), got[0].ResponseTimeMs)
	assert.WithinDuration(t, completedAt, got[0].CompletedAt, time.Millisecond)
	assert.WithinDuration(t, completedAt.Add(-time.Hour), got[0].PeriodStart, time.Millisecond)
	assert.WithinDuration(t, completedAt, got[0].PeriodEnd, time.Millisecond)
}

func TestFetchHistoryStore_GetBySource(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFetchHistoryStore(conn)
	ctx := context.Background()

	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	records := []*domain.FetchRecord{
		testFetchRecord("fetch-3", domain.SourceENTSOE, base.Add(2*time.Hour)), // excluded, at end
		testFetchRecord("fetch-1", domain.SourceENTSOE, base),
		testFetchRecord("fetch-2", domain.SourceENTSOE, base.Add(time.Hour)),
		testFetchRecord("fetch-4", domain.SourceELEXON, base.Add(30*time.Minute)), // other source
	}

	err := store.InsertBulk(ctx, records)
	require.NoError(t, err)

	got, err := store.GetBySource(ctx, domain.SourceENTSOE, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by completed_at ASC
	assert.Equal(t, "fetch-1", got[0].FetchID)
	assert.Equal(t, "fetch-2", got[1].FetchID)

	// Non-existent source
	got, err = store.GetBySource(ctx, domain.SourceEIA, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchHistoryStore_GetRecent(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFetchHistoryStore(conn)
	ctx := context.Background()

	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	records := []*domain.FetchRecord{
		testFetchRecord("fetch-1", domain.SourceENTSOE, base),
		testFetchRecord("fetch-2", domain.SourceELEXON, base.Add(time.Hour)),
		testFetchRecord("fetch-3", domain.SourceEIA, base.Add(2*time.Hour)),
	}

	err := store.InsertBulk(ctx, records)
	require.NoError(t, err)

	got, err := store.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first
	assert.Equal(t, "fetch-3", got[0].FetchID)
	assert.Equal(t, "fetch-2", got[1].FetchID)
}

func TestFetchHistoryStore_InsertFailedFetch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFetchHistoryStore(conn)
	ctx := context.Background()

	completedAt := time.Date(2024, 6, 15, 14, 20, 0, 0, time.UTC)
	rec := testFetchRecord("fetch-failed", domain.SourceTAIPOWER, completedAt)
	rec.Status = domain.FetchStatusFailed
	rec.RecordsFetched = 0
	rec.ErrorMessage = "max retries exceeded: unexpected status 503"

	err := store.Insert(ctx, rec)
	require.NoError(t, err)

	got, err := store.GetBySource(ctx, domain.SourceTAIPOWER, completedAt.Add(-time.Minute), completedAt.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, domain.FetchStatusFailed, got[0].Status)
	assert.Equal(t, uint32(0), got[0].RecordsFetched)
	assert.Equal(t, "max retries exceeded: unexpected status 503", got[0].ErrorMessage)
}
