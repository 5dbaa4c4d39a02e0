package sources

import (
	"context"
	"errors"
	"testing"

	"grid-ingest-lab/internal/domain"
)

func TestAdapterSet(t *testing.T) {
	set := NewAdapterSet(
		NewTAIPOWERAdapter("", nil),
		NewELEXONAdapter("", "", nil),
		NewENTSOEAdapter("", "token", nil),
	)

	if _, ok := set.For(domain.SourceELEXON); !ok {
		t.Error("expected ELEXON adapter")
	}
	if _, ok := set.For(domain.SourceEIA); ok {
		t.Error("expected no EIA adapter")
	}

	sources := set.Sources()
	want := []domain.Source{domain.SourceELEXON, domain.SourceENTSOE, domain.SourceTAIPOWER}
	if len(sources) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(sources))
	}
	for i, s := range want {
		if sources[i] != s {
			t.Errorf("position %d: expected %s, got %s", i, s, sources[i])
		}
	}
}

func TestAdapterSet_LaterAdapterWins(t *testing.T) {
	first := NewELEXONAdapter("http://first", "", nil)
	second := NewELEXONAdapter("http://second", "", nil)

	set := NewAdapterSet(first, second)

	got, ok := set.For(domain.SourceELEXON)
	if !ok {
		t.Fatal("expected ELEXON adapter")
	}
	if got != Adapter(second) {
		t.Error("expected the later adapter to replace the earlier one")
	}
}

func TestNotImplementedAdapter(t *testing.T) {
	adapter := NewNotImplementedAdapter(domain.SourceNVE)

	if adapter.Source() != domain.SourceNVE {
		t.Errorf("expected NVE, got %s", adapter.Source())
	}

	_, err := adapter.Fetch(context.Background(), domain.SourceBatchRequest{Source: domain.SourceNVE})
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}
