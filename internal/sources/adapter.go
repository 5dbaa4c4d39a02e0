package sources

import (
	"context"
	"errors"
	"sort"

	"grid-ingest-lab/internal/domain"
)

// ErrNotImplemented marks sources that are registered but have no working
// adapter yet.
var ErrNotImplemented = errors.New("source adapter not implemented")

// Adapter fetches raw samples from one upstream source. Adapters may
// return more identifiers than the request asked for (some upstreams only
// serve whole-zone payloads); the caller filters down to what it wanted.
type Adapter interface {
	// Source identifies which upstream this adapter talks to.
	Source() domain.Source

	// Fetch retrieves raw samples for the requested batch. An upstream
	// that has no data for the window is not an error: the result carries
	// Meta.Success=false and a reason instead.
	Fetch(ctx context.Context, req domain.SourceBatchRequest) (*domain.FetchResult, error)
}

// AdapterSet holds one adapter per source.
type AdapterSet struct {
	adapters map[domain.Source]Adapter
}

// NewAdapterSet builds a set from the given adapters. A later adapter for
// the same source replaces an earlier one.
func NewAdapterSet(adapters ...Adapter) *AdapterSet {
	set := &AdapterSet{adapters: make(map[domain.Source]Adapter, len(adapters))}
	for _, a := range adapters {
		set.adapters[a.Source()] = a
	}
	return set
}

// For returns the adapter for source, if registered.
func (s *AdapterSet) For(source domain.Source) (Adapter, bool) {
	a, ok := s.adapters[source]
	return a, ok
}

// Sources lists the registered sources in stable order.
func (s *AdapterSet) Sources() []domain.Source {
	out := make([]domain.Source, 0, len(s.adapters))
	for src := range s.adapters {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
