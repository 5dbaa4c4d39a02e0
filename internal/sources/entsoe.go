package sources

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"grid-ingest-lab/internal/domain"
)

const (
	entsoeDefaultBaseURL = "https://web-api.tp.entsoe.eu/api"

	// entsoeQueryTimeFormat is the yyyyMMddHHmm format the API expects in
	// periodStart/periodEnd parameters.
	entsoeQueryTimeFormat = "200601021504"

	// entsoeIntervalTimeFormat is the timestamp format inside timeInterval
	// elements of the response documents.
	entsoeIntervalTimeFormat = "2006-01-02T15:04Z"

	entsoeDocTypeGenerationPerUnit = "A73"
	entsoeDocTypeTotalLoad         = "A65"
	entsoeProcessTypeRealised      = "A16"
)

// glMarketDocument is the GL_MarketDocument response envelope for both
// generation (A73) and load (A65) queries.
type glMarketDocument struct {
	XMLName    xml.Name       `xml:"GL_MarketDocument"`
	TimeSeries []glTimeSeries `xml:"TimeSeries"`
}

type glTimeSeries struct {
	MktPSRType     *glPSRType `xml:"MktPSRType"`
	MeasureUnit    string     `xml:"quantity_Measure_Unit.name"`
	InBiddingZone  string     `xml:"inBiddingZone_Domain.mRID"`
	OutBiddingZone string     `xml:"outBiddingZone_Domain.mRID"`
	Periods        []glPeriod `xml:"Period"`
}

type glPSRType struct {
	PSRType   string                `xml:"psrType"`
	Resources glPowerSystemResource `xml:"PowerSystemResources"`
}

type glPowerSystemResource struct {
	MRID string `xml:"mRID"`
	Name string `xml:"name"`
}

type glPeriod struct {
	TimeInterval glTimeInterval `xml:"timeInterval"`
	Resolution   string         `xml:"resolution"`
	Points       []glPoint      `xml:"Point"`
}

type glTimeInterval struct {
	Start string `xml:"start"`
	End   string `xml:"end"`
}

type glPoint struct {
	Position int     `xml:"position"`
	Quantity float64 `xml:"quantity"`
}

// acknowledgementDocument is what the API returns instead of a market
// document when a query matches nothing or is rejected.
type acknowledgementDocument struct {
	XMLName xml.Name    `xml:"Acknowledgement_MarketDocument"`
	Reasons []ackReason `xml:"Reason"`
}

type ackReason struct {
	Code string `xml:"code"`
	Text string `xml:"text"`
}

// ENTSOEAdapter fetches realised generation per unit and zone-level load
// from the ENTSO-E transparency platform.
type ENTSOEAdapter struct {
	baseURL string
	apiKey  string
	client  *Client
}

// NewENTSOEAdapter creates an adapter against baseURL, or the public
// transparency API when baseURL is empty.
func NewENTSOEAdapter(baseURL, apiKey string, client *Client) *ENTSOEAdapter {
	if baseURL == "" {
		baseURL = entsoeDefaultBaseURL
	}
	if client == nil {
		client = NewClient()
	}
	return &ENTSOEAdapter{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Source implements Adapter.
func (a *ENTSOEAdapter) Source() domain.Source {
	return domain.SourceENTSOE
}

// Fetch retrieves one batch. Generation requests produce one API call per
// PSR type covered by the production filter; the platform serves whole-zone
// documents, so results usually contain more units than were asked for.
func (a *ENTSOEAdapter) Fetch(ctx context.Context, req domain.SourceBatchRequest) (*domain.FetchResult, error) {
	area, ok := AreaCode(req.Zone)
	if !ok {
		return nil, fmt.Errorf("unknown bidding zone %q (known: %s)", req.Zone, strings.Join(KnownZones(), ", "))
	}

	if req.SourceType == domain.SourceTypeAPIConsumption {
		return a.fetchLoad(ctx, req, area)
	}
	return a.fetchGeneration(ctx, req, area)
}

func (a *ENTSOEAdapter) fetchGeneration(ctx context.Context, req domain.SourceBatchRequest, area string) (*domain.FetchResult, error) {
	var psrCodes []string
	if req.ProductionFilter != "" {
		codes, ok := entsoePSRTypes[strings.ToLower(req.ProductionFilter)]
		if !ok {
			return nil, fmt.Errorf("unknown production filter %q", req.ProductionFilter)
		}
		psrCodes = codes
	} else {
		// One unfiltered call returns every production type in the zone.
		psrCodes = []string{""}
	}

	result := &domain.FetchResult{}
	var lastReason string

	for _, psr := range psrCodes {
		query := url.Values{}
		query.Set("securityToken", a.apiKey)
		query.Set("documentType", entsoeDocTypeGenerationPerUnit)
		query.Set("processType", entsoeProcessTypeRealised)
		query.Set("in_Domain", area)
		query.Set("periodStart", req.Start.UTC().Format(entsoeQueryTimeFormat))
		query.Set("periodEnd", req.End.UTC().Format(entsoeQueryTimeFormat))
		if psr != "" {
			query.Set("psrType", psr)
		}

		doc, reason, err := a.query(ctx, query, &result.Meta)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			lastReason = reason
			continue
		}

		for _, ts := range doc.TimeSeries {
			samples, err := generationSamples(ts, req.Zone)
			if err != nil {
				return nil, err
			}
			result.Samples = append(result.Samples, samples...)
		}
	}

	result.Meta.Success = len(result.Samples) > 0
	if !result.Meta.Success {
		if lastReason == "" {
			lastReason = "no matching data found"
		}
		result.Meta.Reason = lastReason
	}
	return result, nil
}

func (a *ENTSOEAdapter) fetchLoad(ctx context.Context, req domain.SourceBatchRequest, area string) (*domain.FetchResult, error) {
	query := url.Values{}
	query.Set("securityToken", a.apiKey)
	query.Set("documentType", entsoeDocTypeTotalLoad)
	query.Set("processType", entsoeProcessTypeRealised)
	query.Set("outBiddingZone_Domain", area)
	query.Set("periodStart", req.Start.UTC().Format(entsoeQueryTimeFormat))
	query.Set("periodEnd", req.End.UTC().Format(entsoeQueryTimeFormat))

	result := &domain.FetchResult{}
	doc, reason, err := a.query(ctx, query, &result.Meta)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		for _, ts := range doc.TimeSeries {
			samples, err := loadSamples(ts, req.Zone)
			if err != nil {
				return nil, err
			}
			result.Samples = append(result.Samples, samples...)
		}
	}

	result.Meta.Success = len(result.Samples) > 0
	if !result.Meta.Success {
		if reason == "" {
			reason = "no matching data found"
		}
		result.Meta.Reason = reason
	}
	return result, nil
}

// query performs one API call and accounts for it in meta. It returns a
// nil document with a reason when the platform acknowledged the query but
// had nothing to return.
func (a *ENTSOEAdapter) query(ctx context.Context, query url.Values, meta *domain.FetchMetadata) (*glMarketDocument, string, error) {
	body, stats, err := a.client.Get(ctx, a.baseURL, query, nil)
	meta.APICalls += stats.Attempts
	meta.ResponseTime += stats.Elapsed
	if err != nil {
		// The platform rejects no-data queries with a 400 wrapping an
		// acknowledgement document rather than an empty result.
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
			if reason, ok := ackReasonText([]byte(statusErr.Body)); ok {
				return nil, reason, nil
			}
		}
		return nil, "", err
	}

	if reason, ok := ackReasonText(body); ok {
		return nil, reason, nil
	}

	var doc glMarketDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}
	return &doc, "", nil
}

// ackReasonText extracts the reason text when data is an acknowledgement
// document.
func ackReasonText(data []byte) (string, bool) {
	var ack acknowledgementDocument
	if err := xml.Unmarshal(data, &ack); err != nil {
		return "", false
	}
	var texts []string
	for _, r := range ack.Reasons {
		if r.Text != "" {
			texts = append(texts, r.Text)
		}
	}
	if len(texts) == 0 {
		return "query acknowledged with no data", true
	}
	return strings.Join(texts, "; "), true
}

// generationSamples flattens one generation time series into raw samples.
// Point positions are converted to timestamps using the period resolution;
// the samples themselves carry no declared resolution, the normalizer
// infers it from the spacing it observes.
func generationSamples(ts glTimeSeries, zone string) ([]domain.RawSample, error) {
	if ts.MktPSRType == nil || ts.MktPSRType.Resources.MRID == "" {
		return nil, nil
	}
	identifier := ts.MktPSRType.Resources.MRID
	production := entsoePSRNames[ts.MktPSRType.PSRType]
	if production == "" {
		production = ts.MktPSRType.PSRType
	}

	var out []domain.RawSample
	for _, period := range ts.Periods {
		start, step, err := periodGrid(period)
		if err != nil {
			return nil, err
		}
		for _, p := range period.Points {
			out = append(out, domain.RawSample{
				Identifier:     identifier,
				Value:          p.Quantity,
				Unit:           "MW",
				Timestamp:      start.Add(time.Duration(p.Position-1) * step),
				Direction:      "generation",
				ProductionType: production,
				Area:           zone,
			})
		}
	}
	return out, nil
}

// loadSamples flattens one zone-level load time series. The zone itself is
// the identifier; there is no per-unit breakdown for consumption.
func loadSamples(ts glTimeSeries, zone string) ([]domain.RawSample, error) {
	var out []domain.RawSample
	for _, period := range ts.Periods {
		start, step, err := periodGrid(period)
		if err != nil {
			return nil, err
		}
		for _, p := range period.Points {
			out = append(out, domain.RawSample{
				Identifier: zone,
				Value:      p.Quantity,
				Unit:       "MW",
				Timestamp:  start.Add(time.Duration(p.Position-1) * step),
				Direction:  "consumption",
				Area:       zone,
			})
		}
	}
	return out, nil
}

// periodGrid parses the interval start and resolution of one period.
func periodGrid(period glPeriod) (time.Time, time.Duration, error) {
	start, err := parseIntervalTime(period.TimeInterval.Start)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse interval start %q: %w", period.TimeInterval.Start, err)
	}
	step, err := parseResolution(period.Resolution)
	if err != nil {
		return time.Time{}, 0, err
	}
	return start, step, nil
}

func parseIntervalTime(s string) (time.Time, error) {
	t, err := time.Parse(entsoeIntervalTimeFormat, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseResolution(s string) (time.Duration, error) {
	switch s {
	case "PT15M":
		return 15 * time.Minute, nil
	case "PT30M":
		return 30 * time.Minute, nil
	case "PT60M", "PT1H":
		return time.Hour, nil
	case "P1D":
		return 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported resolution %q", s)
}
