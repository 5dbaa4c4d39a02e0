package stub

import (
	"context"
	"sync"

	"grid-ingest-lab/internal/domain"
)

// StubAdapter returns fixed in-memory samples for testing.
// Implements sources.Adapter.
type StubAdapter struct {
	source  domain.Source
	samples []domain.RawSample

	mu       sync.Mutex
	requests []domain.SourceBatchRequest
}

// NewStubAdapter creates a stub adapter serving the given samples.
func NewStubAdapter(source domain.Source, samples []domain.RawSample) *StubAdapter {
	return &StubAdapter{source: source, samples: samples}
}

// Source implements sources.Adapter.
func (s *StubAdapter) Source() domain.Source {
	return s.source
}

// Fetch returns samples within the requested range. Timestamped samples
// are filtered to [Start, End); settlement-marker samples pass through
// unfiltered, like a real settlement-calendar source. Returns copies to
// prevent mutation.
func (s *StubAdapter) Fetch(_ context.Context, req domain.SourceBatchRequest) (*domain.FetchResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	result := &domain.FetchResult{}
	for _, sample := range s.samples {
		if !sample.Timestamp.IsZero() {
			if sample.Timestamp.Before(req.Start) || !sample.Timestamp.Before(req.End) {
				continue
			}
		}
		result.Samples = append(result.Samples, sample)
	}

	result.Meta.APICalls = 1
	result.Meta.Success = len(result.Samples) > 0
	if !result.Meta.Success {
		result.Meta.Reason = "no stub samples in range"
	}
	return result, nil
}

// Requests returns the batch requests Fetch has seen.
func (s *StubAdapter) Requests() []domain.SourceBatchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SourceBatchRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// FailingAdapter always returns the configured error.
// Implements sources.Adapter.
type FailingAdapter struct {
	source domain.Source
	err    error
}

// NewFailingAdapter creates a stub adapter whose Fetch always fails.
func NewFailingAdapter(source domain.Source, err error) *FailingAdapter {
	return &FailingAdapter{source: source, err: err}
}

// Source implements sources.Adapter.
func (f *FailingAdapter) Source() domain.Source {
	return f.source
}

// Fetch implements sources.Adapter.
func (f *FailingAdapter) Fetch(_ context.Context, _ domain.SourceBatchRequest) (*domain.FetchResult, error) {
	return nil, f.err
}
