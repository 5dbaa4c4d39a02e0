package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"grid-ingest-lab/internal/domain"
)

const taipowerDefaultURL = "https://service.taipower.com.tw/data/opendata/apply/file/d006001/001.json"

// taipowerDocument is the live generation snapshot feed. The file is
// UTF-8 with a BOM and uses Chinese column names.
type taipowerDocument struct {
	DateTime string        `json:"DateTime"`
	Rows     []taipowerRow `json:"aaData"`
}

type taipowerRow struct {
	UnitType    taipowerCell `json:"機組類型"`
	UnitName    taipowerCell `json:"機組名稱"`
	CapacityMW  taipowerCell `json:"裝置容量(MW)"`
	NetGenMW    taipowerCell `json:"淨發電量(MW)"`
	Utilization taipowerCell `json:"淨發電量/裝置容量比(%)"`
	Notes       taipowerCell `json:"備註"`
}

// taipowerCell accepts both string and bare-number cells; the feed mixes
// them between rows.
type taipowerCell string

func (c *taipowerCell) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*c = taipowerCell(str)
		return nil
	}
	*c = taipowerCell(s)
	return nil
}

// TAIPOWERAdapter fetches the Taipower live per-unit generation snapshot.
type TAIPOWERAdapter struct {
	url    string
	client *Client
	loc    *time.Location
}

// NewTAIPOWERAdapter creates an adapter against feedURL, or the public
// open-data feed when feedURL is empty.
func NewTAIPOWERAdapter(feedURL string, client *Client) *TAIPOWERAdapter {
	if feedURL == "" {
		feedURL = taipowerDefaultURL
	}
	if client == nil {
		client = NewClient()
	}
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		// Taiwan does not observe DST, a fixed offset is exact.
		loc = time.FixedZone("UTC+8", 8*60*60)
	}
	return &TAIPOWERAdapter{url: feedURL, client: client, loc: loc}
}

// Source implements Adapter.
func (a *TAIPOWERAdapter) Source() domain.Source {
	return domain.SourceTAIPOWER
}

// Fetch retrieves the current snapshot. The feed is a single live file
// refreshed roughly every ten minutes, so the requested time range is
// ignored and every unit in the snapshot is returned, including the
// per-fuel subtotal rows; the caller keeps what it asked for.
func (a *TAIPOWERAdapter) Fetch(ctx context.Context, req domain.SourceBatchRequest) (*domain.FetchResult, error) {
	result := &domain.FetchResult{}
	body, stats, err := a.client.Get(ctx, a.url, nil, nil)
	result.Meta.APICalls = stats.Attempts
	result.Meta.ResponseTime = stats.Elapsed
	if err != nil {
		return nil, err
	}

	body = bytes.TrimPrefix(body, []byte("\uFEFF"))

	var doc taipowerDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	snapshot, err := a.parseSnapshotTime(doc.DateTime)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot time %q: %w", doc.DateTime, err)
	}

	for _, row := range doc.Rows {
		name := strings.TrimSpace(string(row.UnitName))
		if name == "" {
			continue
		}
		result.Samples = append(result.Samples, domain.RawSample{
			Identifier:     name,
			Value:          parseTaipowerValue(string(row.NetGenMW)),
			Unit:           "MW",
			Timestamp:      snapshot,
			PeriodType:     domain.PeriodPT10M,
			Direction:      "generation",
			ProductionType: strings.TrimSpace(string(row.UnitType)),
			Area:           req.Zone,
		})
	}

	result.Meta.Success = len(result.Samples) > 0
	if !result.Meta.Success {
		result.Meta.Reason = "snapshot contained no units"
	}
	return result, nil
}

// parseSnapshotTime converts the feed's local timestamp to UTC.
func (a *TAIPOWERAdapter) parseSnapshotTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, a.loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}

// parseTaipowerValue extracts the numeric part of a cell. Cells carry
// plain numbers, percentages ("94.162%"), or values with a parenthesized
// ratio appended ("951.0(1.644%)"). Missing and non-numeric cells become
// NaN.
func parseTaipowerValue(s string) float64 {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" || s == "N/A" || s == "-" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
