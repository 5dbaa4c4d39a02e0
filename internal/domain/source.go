package domain

// Source identifies the upstream data provider an observation came from.
type Source string

const (
	SourceENTSOE          Source = "ENTSOE"
	SourceELEXON          Source = "ELEXON"
	SourceEIA             Source = "EIA"
	SourceTAIPOWER        Source = "TAIPOWER"
	SourceNVE             Source = "NVE"
	SourceENERGISTYRELSEN Source = "ENERGISTYRELSEN"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a valid value.
func (s Source) IsValid() bool {
	switch s {
	case SourceENTSOE, SourceELEXON, SourceEIA, SourceTAIPOWER, SourceNVE, SourceENERGISTYRELSEN:
		return true
	}
	return false
}

// SourceType distinguishes parallel data streams from the same provider,
// e.g. generation vs. consumption fetched through the same API.
type SourceType string

const (
	SourceTypeAPI            SourceType = "api"
	SourceTypeAPIConsumption SourceType = "api_consumption"
	SourceTypeCSV            SourceType = "csv"
	SourceTypeBOAVBid        SourceType = "boav_bid"
)

// String returns the string representation of SourceType.
func (t SourceType) String() string {
	return string(t)
}

// IsValid checks if the source type is a valid value.
func (t SourceType) IsValid() bool {
	switch t {
	case SourceTypeAPI, SourceTypeAPIConsumption, SourceTypeCSV, SourceTypeBOAVBid:
		return true
	}
	return false
}
