package config

import (
	"fmt"

	"grid-ingest-lab/internal/normalization"
)

// IngestConfig tunes how a run fans out and normalizes.
type IngestConfig struct {
	// Workers bounds the number of concurrent batch fetches.
	Workers int `json:"workers"`
	// ResolutionPolicy is "per_identifier" or "per_batch".
	ResolutionPolicy string `json:"resolution_policy"`
}

func (c *IngestConfig) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.ResolutionPolicy == "" {
		c.ResolutionPolicy = string(normalization.PolicyPerIdentifier)
	}
}

func (c *IngestConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if !normalization.ResolutionPolicy(c.ResolutionPolicy).IsValid() {
		return fmt.Errorf("unknown resolution_policy %q", c.ResolutionPolicy)
	}
	return nil
}
