package sources

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grid-ingest-lab/internal/domain"
)

func elexonRequest() domain.SourceBatchRequest {
	return domain.SourceBatchRequest{
		Source:      domain.SourceELEXON,
		SourceType:  domain.SourceTypeAPI,
		Zone:        "GB",
		Identifiers: []string{"T_DRAXX-1", "T_DRAXX-2"},
		Start:       time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
	}
}

func TestELEXONAdapter_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bmrs/api/v1/datasets/B1610/stream" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("from"); got != "2024-06-15T00:00Z" {
			t.Errorf("expected from=2024-06-15T00:00Z, got %s", got)
		}
		if got := q.Get("to"); got != "2024-06-16T00:00Z" {
			t.Errorf("expected to=2024-06-16T00:00Z, got %s", got)
		}
		if got := q["bmUnit"]; len(got) != 2 || got[0] != "T_DRAXX-1" || got[1] != "T_DRAXX-2" {
			t.Errorf("expected repeated bmUnit params, got %v", got)
		}
		if got := r.Header.Get("x-api-key"); got != "elexon-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected Accept application/json, got %q", got)
		}

		w.Write([]byte(`[
			{"dataset":"B1610","settlementDate":"2024-06-15","settlementPeriod":1,"bmUnit":"T_DRAXX-1","quantity":245.5},
			{"dataset":"B1610","settlementDate":"2024-06-15","settlementPeriod":2,"bmUnit":"T_DRAXX-1","quantity":248.1},
			{"dataset":"B1610","settlementDate":"2024-06-15","settlementPeriod":1,"bmUnit":"T_DRAXX-2","quantity":198.0}
		]`))
	}))
	defer server.Close()

	adapter := NewELEXONAdapter(server.URL, "elexon-key", NewClient())

	result, err := adapter.Fetch(context.Background(), elexonRequest())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(result.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(result.Samples))
	}

	first := result.Samples[0]
	if first.Identifier != "T_DRAXX-1" {
		t.Errorf("expected T_DRAXX-1, got %s", first.Identifier)
	}
	if first.SettlementDate != "2024-06-15" || first.SettlementPeriod != 1 {
		t.Errorf("expected settlement marker 2024-06-15/1, got %s/%d", first.SettlementDate, first.SettlementPeriod)
	}
	if !first.HasSettlementMarker() {
		t.Error("expected settlement marker")
	}
	if !first.Timestamp.IsZero() {
		t.Errorf("expected no timestamp, got %v", first.Timestamp)
	}
	if first.Unit != "MWh" {
		t.Errorf("expected unit MWh, got %s", first.Unit)
	}
	if first.Value != 245.5 {
		t.Errorf("expected value 245.5, got %f", first.Value)
	}
	if first.Direction != "generation" {
		t.Errorf("expected direction generation, got %s", first.Direction)
	}
	if first.Area != "GB" {
		t.Errorf("expected area GB, got %s", first.Area)
	}

	if !result.Meta.Success {
		t.Error("expected success metadata")
	}
	if result.Meta.APICalls != 1 {
		t.Errorf("expected 1 API call, got %d", result.Meta.APICalls)
	}
}

func TestELEXONAdapter_EmptyResultIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	adapter := NewELEXONAdapter(server.URL, "", NewClient())

	result, err := adapter.Fetch(context.Background(), elexonRequest())
	if err != nil {
		t.Fatalf("expected no error for empty result, got %v", err)
	}

	if len(result.Samples) != 0 {
		t.Errorf("expected no samples, got %d", len(result.Samples))
	}
	if result.Meta.Success {
		t.Error("expected success=false for empty result")
	}
	if result.Meta.Reason != "no data available for the specified parameters" {
		t.Errorf("unexpected reason %q", result.Meta.Reason)
	}
}

func TestELEXONAdapter_NullQuantityBecomesNaN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"dataset":"B1610","settlementDate":"2024-06-15","settlementPeriod":3,"bmUnit":"T_DRAXX-1","quantity":null}]`))
	}))
	defer server.Close()

	adapter := NewELEXONAdapter(server.URL, "", NewClient())

	result, err := adapter.Fetch(context.Background(), elexonRequest())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(result.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(result.Samples))
	}
	if !math.IsNaN(result.Samples[0].Value) {
		t.Errorf("expected NaN for null quantity, got %f", result.Samples[0].Value)
	}
}

func TestELEXONAdapter_TrimsTimeFromSettlementDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"dataset":"B1610","settlementDate":"2024-06-15T00:00:00","settlementPeriod":10,"bmUnit":"T_DRAXX-1","quantity":200.0}]`))
	}))
	defer server.Close()

	adapter := NewELEXONAdapter(server.URL, "", NewClient())

	result, err := adapter.Fetch(context.Background(), elexonRequest())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if got := result.Samples[0].SettlementDate; got != "2024-06-15" {
		t.Errorf("expected date-only settlement date, got %q", got)
	}
}

func TestELEXONAdapter_NoAPIKeySendsNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["X-Api-Key"]; ok {
			t.Error("expected no x-api-key header without a key")
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	adapter := NewELEXONAdapter(server.URL, "", NewClient())

	if _, err := adapter.Fetch(context.Background(), elexonRequest()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}
