package config

// SourceAPIConfig holds the connection settings for one upstream API.
type SourceAPIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	// RequestIntervalMs spaces successive requests to the same API.
	// Zero keeps the client default.
	RequestIntervalMs int `json:"request_interval_ms"`
	TimeoutSeconds    int `json:"timeout_seconds"`
	MaxRetries        int `json:"max_retries"`
}

// SourcesConfig configures the upstream data providers. A source with no
// section keeps its built-in defaults; sources without credentials are
// simply not registered.
type SourcesConfig struct {
	ENTSOE   SourceAPIConfig `json:"entsoe"`
	ELEXON   SourceAPIConfig `json:"elexon"`
	EIA      SourceAPIConfig `json:"eia"`
	TAIPOWER SourceAPIConfig `json:"taipower"`
}
