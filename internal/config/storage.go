package config

import "fmt"

// StorageConfig selects and configures the persistence backends.
type StorageConfig struct {
	// Backend is "postgres" or "memory". Memory keeps everything in
	// process and is meant for local runs and tests.
	Backend     string `json:"backend"`
	PostgresDSN string `json:"postgres_dsn"`
	// ClickhouseDSN is optional. Fetch history auditing is skipped when empty.
	ClickhouseDSN string `json:"clickhouse_dsn"`
}

func (c *StorageConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres backend requires postgres_dsn")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
}
