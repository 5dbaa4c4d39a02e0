package upsert

import (
	"context"
	"fmt"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/storage"
)

// MaxBatchSize caps rows per storage write so a single statement never
// exceeds the backend's parameter budget.
const MaxBatchSize = 1000

// Engine persists normalized observations through batched,
// conflict-resolving bulk writes.
type Engine struct {
	store     storage.ObservationStore
	batchSize int
}

// NewEngine creates an engine writing through the given store in
// sub-batches of MaxBatchSize rows.
func NewEngine(store storage.ObservationStore) *Engine {
	return &Engine{store: store, batchSize: MaxBatchSize}
}

// Result reports the rows written by one Apply call.
type Result struct {
	Stored  int
	Updated int
}

// Apply upserts observations in sequential sub-batches. Each sub-batch
// commits independently: when one fails, counts from sub-batches already
// committed are returned alongside the error and later sub-batches are
// not attempted. Duplicate keys within the input collapse to the last
// occurrence before writing, so a batch never conflicts with itself.
func (e *Engine) Apply(ctx context.Context, obs []*domain.RawObservation) (Result, error) {
	var res Result
	rows := dedupe(obs)
	for lo := 0; lo < len(rows); lo += e.batchSize {
		hi := lo + e.batchSize
		if hi > len(rows) {
			hi = len(rows)
		}
		stored, updated, err := e.store.UpsertBatch(ctx, rows[lo:hi])
		res.Stored += stored
		res.Updated += updated
		if err != nil {
			return res, fmt.Errorf("rows %d..%d: %w", lo, hi-1, err)
		}
	}
	return res, nil
}

// dedupe collapses rows sharing an upsert key to the last occurrence,
// keeping first-seen order.
func dedupe(obs []*domain.RawObservation) []*domain.RawObservation {
	if len(obs) < 2 {
		return obs
	}
	pos := make(map[string]int, len(obs))
	out := make([]*domain.RawObservation, 0, len(obs))
	for _, o := range obs {
		k := o.Key()
		if i, ok := pos[k]; ok {
			out[i] = o
			continue
		}
		pos[k] = len(out)
		out = append(out, o)
	}
	return out
}
