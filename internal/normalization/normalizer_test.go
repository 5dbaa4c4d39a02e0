package normalization

import (
	"math"
	"strings"
	"testing"
	"time"

	"grid-ingest-lab/internal/domain"
)

func baseOptions() Options {
	return Options{
		Source:     domain.SourceENTSOE,
		SourceType: domain.SourceTypeAPI,
		Zone:       "DE",
		FetchedAt:  time.Date(2025, 1, 16, 8, 0, 0, 0, time.UTC),
	}
}

func timestamped(id string, start time.Time, step time.Duration, values ...float64) []domain.RawSample {
	out := make([]domain.RawSample, len(values))
	for i, v := range values {
		out[i] = domain.RawSample{
			Identifier: id,
			Value:      v,
			Unit:       "MW",
			Timestamp:  start.Add(time.Duration(i) * step),
		}
	}
	return out
}

func TestBuildObservationsPerIdentifierResolution(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	samples := append(
		timestamped("UNIT-A", start, 15*time.Minute, 10, 11, 12, 13),
		timestamped("UNIT-B", start, time.Hour, 20, 21, 22, 23)...,
	)

	res, err := BuildObservations(samples, baseOptions())
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}
	if len(res.Observations) != 8 {
		t.Fatalf("expected 8 observations, got %d", len(res.Observations))
	}

	for _, o := range res.Observations {
		switch o.Identifier {
		case "UNIT-A":
			if o.PeriodType != domain.PeriodPT15M {
				t.Errorf("UNIT-A period type = %v, want PT15M", o.PeriodType)
			}
			if got := o.PeriodEnd.Sub(o.PeriodStart); got != 15*time.Minute {
				t.Errorf("UNIT-A period length = %v, want 15m", got)
			}
		case "UNIT-B":
			if o.PeriodType != domain.PeriodPT60M {
				t.Errorf("UNIT-B period type = %v, want PT60M", o.PeriodType)
			}
		default:
			t.Errorf("unexpected identifier %q", o.Identifier)
		}
	}
}

func TestBuildObservationsPerBatchResolution(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	samples := append(
		timestamped("UNIT-A", start, 15*time.Minute, 10, 11, 12, 13),
		timestamped("UNIT-B", start, time.Hour, 20, 21, 22, 23)...,
	)

	opts := baseOptions()
	opts.Policy = PolicyPerBatch
	res, err := BuildObservations(samples, opts)
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}

	for _, o := range res.Observations {
		if o.PeriodType != domain.PeriodPT15M {
			t.Errorf("%s period type = %v, want batch-wide PT15M", o.Identifier, o.PeriodType)
		}
	}
}

func TestBuildObservationsSingleSampleBorrowsBatch(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	samples := append(
		timestamped("UNIT-A", start, 15*time.Minute, 10, 11, 12, 13),
		timestamped("UNIT-B", start, 15*time.Minute, 20)...,
	)

	res, err := BuildObservations(samples, baseOptions())
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}

	for _, o := range res.Observations {
		if o.Identifier == "UNIT-B" && o.PeriodType != domain.PeriodPT15M {
			t.Errorf("UNIT-B period type = %v, want borrowed PT15M", o.PeriodType)
		}
	}
}

func TestBuildObservationsDropsNaN(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	samples := timestamped("UNIT-A", start, time.Hour, 10, math.NaN(), 12)

	res, err := BuildObservations(samples, baseOptions())
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}
	if len(res.Observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(res.Observations))
	}
	if res.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", res.Dropped)
	}
	for _, o := range res.Observations {
		if len(o.Data.Outliers) != 0 {
			t.Errorf("NaN must be dropped, not flagged; got flags on %v", o.PeriodStart)
		}
	}
}

func TestBuildObservationsSettlementMarker(t *testing.T) {
	loc := london(t)
	samples := []domain.RawSample{
		{Identifier: "T_WND-1", Value: 55.5, Unit: "MW", SettlementDate: "2024-06-15", SettlementPeriod: 1},
		{Identifier: "T_WND-1", Value: 56.0, Unit: "MW", SettlementDate: "2024-06-15", SettlementPeriod: 2},
	}

	opts := baseOptions()
	opts.Source = domain.SourceELEXON
	opts.Zone = "GB"
	opts.Location = loc

	res, err := BuildObservations(samples, opts)
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}
	if len(res.Observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(res.Observations))
	}

	first := res.Observations[0]
	if want := ts(t, "2024-06-14T23:00:00Z"); !first.PeriodStart.Equal(want) {
		t.Errorf("period 1 start = %v, want %v", first.PeriodStart, want)
	}
	if first.PeriodType != domain.PeriodPT30M {
		t.Errorf("period type = %v, want PT30M", first.PeriodType)
	}
	if got := first.PeriodEnd.Sub(first.PeriodStart); got != 30*time.Minute {
		t.Errorf("period length = %v, want 30m", got)
	}
	if first.Data.SettlementDate != "2024-06-15" || first.Data.SettlementPeriod != 1 {
		t.Errorf("settlement marker not preserved: %+v", first.Data)
	}
	if first.Data.Area != "GB" {
		t.Errorf("area = %q, want zone fallback GB", first.Data.Area)
	}
}

func TestBuildObservationsSettlementPeriodBeyondDay(t *testing.T) {
	loc := london(t)
	samples := []domain.RawSample{
		{Identifier: "T_WND-1", Value: 55.5, SettlementDate: "2025-03-30", SettlementPeriod: 47},
	}

	opts := baseOptions()
	opts.Source = domain.SourceELEXON
	opts.Location = loc

	res, err := BuildObservations(samples, opts)
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}
	if len(res.Observations) != 1 {
		t.Fatalf("out-of-range period must still be stored, got %d observations", len(res.Observations))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "beyond 46 periods") {
		t.Errorf("expected out-of-range warning, got %v", res.Warnings)
	}
}

func TestBuildObservationsSettlementRequiresLocation(t *testing.T) {
	samples := []domain.RawSample{
		{Identifier: "T_WND-1", Value: 55.5, SettlementDate: "2024-06-15", SettlementPeriod: 1},
	}

	opts := baseOptions()
	opts.Source = domain.SourceELEXON

	if _, err := BuildObservations(samples, opts); err == nil {
		t.Error("settlement samples without a location should error")
	}
}

func TestBuildObservationsDeclaredResolutionHonored(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	samples := []domain.RawSample{
		{Identifier: "風力-1", Value: 3.2, Unit: "MW", Timestamp: start, PeriodType: domain.PeriodPT10M},
		{Identifier: "風力-1", Value: 3.4, Unit: "MW", Timestamp: start.Add(10 * time.Minute), PeriodType: domain.PeriodPT10M},
	}

	opts := baseOptions()
	opts.Source = domain.SourceTAIPOWER
	opts.Zone = "TW"

	res, err := BuildObservations(samples, opts)
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}
	for _, o := range res.Observations {
		if o.PeriodType != domain.PeriodPT10M {
			t.Errorf("declared PT10M overridden to %v", o.PeriodType)
		}
	}
}

func TestBuildObservationsMonthlyPeriodEnd(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []domain.RawSample{
		{Identifier: "56789", Value: 12500, Unit: "MWh", Timestamp: start, PeriodType: domain.PeriodMonth},
	}

	opts := baseOptions()
	opts.Source = domain.SourceEIA
	opts.Zone = "US"

	res, err := BuildObservations(samples, opts)
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}
	if len(res.Observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(res.Observations))
	}
	if want := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC); !res.Observations[0].PeriodEnd.Equal(want) {
		t.Errorf("monthly period end = %v, want %v", res.Observations[0].PeriodEnd, want)
	}
}

func TestBuildObservationsAttachesOutlierFlags(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	samples := timestamped("UNIT-A", start, time.Hour, 120, 50)

	opts := baseOptions()
	opts.CapacityMW = map[string]float64{"UNIT-A": 100}

	res, err := BuildObservations(samples, opts)
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}
	if res.Flagged != 1 {
		t.Errorf("Flagged = %d, want 1", res.Flagged)
	}
	if len(res.Observations[0].Data.Outliers) != 1 {
		t.Fatalf("first observation should carry one flag, got %v", res.Observations[0].Data.Outliers)
	}
	if ratio := res.Observations[0].Data.Outliers[0].Ratio; math.Abs(ratio-1.2) > 1e-9 {
		t.Errorf("flag ratio = %v, want 1.2", ratio)
	}
	if len(res.Observations[1].Data.Outliers) != 0 {
		t.Errorf("in-range observation should carry no flags")
	}
}

func TestBuildObservationsSampleAreaWins(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	samples := []domain.RawSample{
		{Identifier: "UNIT-A", Value: 10, Timestamp: start, Area: "DE-LU"},
	}

	res, err := BuildObservations(samples, baseOptions())
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}
	if res.Observations[0].Data.Area != "DE-LU" {
		t.Errorf("area = %q, want sample-level DE-LU", res.Observations[0].Data.Area)
	}
}

func TestBuildObservationsNoTimeReferenceDropped(t *testing.T) {
	samples := []domain.RawSample{
		{Identifier: "UNIT-A", Value: 10},
	}

	res, err := BuildObservations(samples, baseOptions())
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}
	if len(res.Observations) != 0 || res.Dropped != 1 || len(res.Warnings) != 1 {
		t.Errorf("expected drop with warning, got obs=%d dropped=%d warnings=%v",
			len(res.Observations), res.Dropped, res.Warnings)
	}
}

func TestBuildObservationsProvenance(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	samples := []domain.RawSample{
		{Identifier: "UNIT-A", Value: 10, Timestamp: start, Direction: "generation", ProductionType: "B19"},
	}

	opts := baseOptions()
	res, err := BuildObservations(samples, opts)
	if err != nil {
		t.Fatalf("BuildObservations() error: %v", err)
	}

	data := res.Observations[0].Data
	if data.Direction != "generation" || data.ProductionType != "B19" {
		t.Errorf("direction/production not preserved: %+v", data)
	}
	if !data.FetchedAt.Equal(opts.FetchedAt) {
		t.Errorf("fetched_at = %v, want %v", data.FetchedAt, opts.FetchedAt)
	}
}
