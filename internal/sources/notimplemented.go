package sources

import (
	"context"
	"fmt"

	"grid-ingest-lab/internal/domain"
)

// NotImplementedAdapter is a placeholder for sources that are registered
// in the source catalog but have no working fetch path yet. Fetch always
// fails with ErrNotImplemented so runs against these sources report a
// clear per-source error instead of silently skipping them.
type NotImplementedAdapter struct {
	source domain.Source
}

// NewNotImplementedAdapter creates a placeholder for source.
func NewNotImplementedAdapter(source domain.Source) *NotImplementedAdapter {
	return &NotImplementedAdapter{source: source}
}

// Source implements Adapter.
func (a *NotImplementedAdapter) Source() domain.Source {
	return a.source
}

// Fetch implements Adapter.
func (a *NotImplementedAdapter) Fetch(ctx context.Context, req domain.SourceBatchRequest) (*domain.FetchResult, error) {
	return nil, fmt.Errorf("%s: %w", a.source, ErrNotImplemented)
}
