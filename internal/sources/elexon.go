package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"grid-ingest-lab/internal/domain"
)

const (
	elexonDefaultBaseURL = "https://data.elexon.co.uk"

	// elexonTimeFormat is the from/to query format of the Insights
	// streaming endpoints.
	elexonTimeFormat = "2006-01-02T15:04Z"
)

// elexonRow is one record of the B1610 actual-generation-per-unit stream.
type elexonRow struct {
	Dataset          string   `json:"dataset"`
	SettlementDate   string   `json:"settlementDate"`
	SettlementPeriod int      `json:"settlementPeriod"`
	BMUnit           string   `json:"bmUnit"`
	Quantity         *float64 `json:"quantity"`
}

// ELEXONAdapter fetches half-hourly metered generation per BM unit from
// the Elexon Insights B1610 dataset.
type ELEXONAdapter struct {
	baseURL string
	apiKey  string
	client  *Client
}

// NewELEXONAdapter creates an adapter against baseURL, or the public
// Insights API when baseURL is empty. The API key is optional; Elexon
// serves B1610 without one at a lower rate limit.
func NewELEXONAdapter(baseURL, apiKey string, client *Client) *ELEXONAdapter {
	if baseURL == "" {
		baseURL = elexonDefaultBaseURL
	}
	if client == nil {
		client = NewClient()
	}
	return &ELEXONAdapter{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Source implements Adapter.
func (a *ELEXONAdapter) Source() domain.Source {
	return domain.SourceELEXON
}

// Fetch retrieves B1610 rows for the requested BM units. Rows carry
// settlement date and period rather than timestamps; the normalizer
// resolves them against the GB settlement calendar.
func (a *ELEXONAdapter) Fetch(ctx context.Context, req domain.SourceBatchRequest) (*domain.FetchResult, error) {
	query := url.Values{}
	query.Set("from", req.Start.UTC().Format(elexonTimeFormat))
	query.Set("to", req.End.UTC().Format(elexonTimeFormat))
	for _, id := range req.Identifiers {
		query.Add("bmUnit", id)
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if a.apiKey != "" {
		header.Set("x-api-key", a.apiKey)
	}

	result := &domain.FetchResult{}
	body, stats, err := a.client.Get(ctx, a.baseURL+"/bmrs/api/v1/datasets/B1610/stream", query, header)
	result.Meta.APICalls = stats.Attempts
	result.Meta.ResponseTime = stats.Elapsed
	if err != nil {
		return nil, err
	}

	var rows []elexonRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, row := range rows {
		if row.BMUnit == "" {
			continue
		}
		value := math.NaN()
		if row.Quantity != nil {
			value = *row.Quantity
		}
		result.Samples = append(result.Samples, domain.RawSample{
			Identifier:       row.BMUnit,
			Value:            value,
			Unit:             "MWh",
			SettlementDate:   dateOnly(row.SettlementDate),
			SettlementPeriod: row.SettlementPeriod,
			Direction:        "generation",
			Area:             req.Zone,
		})
	}

	result.Meta.Success = len(result.Samples) > 0
	if !result.Meta.Success {
		result.Meta.Reason = "no data available for the specified parameters"
	}
	return result, nil
}

// dateOnly trims a trailing time component from a settlement date. The
// stream sometimes returns full timestamps for the date field.
func dateOnly(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
