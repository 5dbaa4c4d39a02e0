package config

import (
	"fmt"
	"strings"

	"grid-ingest-lab/internal/domain"
	"grid-ingest-lab/internal/registry"
)

// UnitConfig declares one generation unit or area to ingest.
type UnitConfig struct {
	Identifier string `json:"identifier"`
	// Source names the upstream provider, case-insensitive ("entsoe").
	Source     string `json:"source"`
	SourceType string `json:"source_type"`
	// Zone is the requesting zone or area code the source API expects.
	Zone             string  `json:"zone"`
	CapacityMW       float64 `json:"capacity_mw"`
	ProductionFilter string  `json:"production_filter"`
}

func (c *UnitConfig) Validate() error {
	if c.Identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	if !c.source().IsValid() {
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if !c.sourceType().IsValid() {
		return fmt.Errorf("unknown source_type %q", c.SourceType)
	}
	if c.CapacityMW < 0 {
		return fmt.Errorf("capacity_mw must not be negative, got %v", c.CapacityMW)
	}
	return nil
}

func (c *UnitConfig) source() domain.Source {
	return domain.Source(strings.ToUpper(c.Source))
}

func (c *UnitConfig) sourceType() domain.SourceType {
	if c.SourceType == "" {
		return domain.SourceTypeAPI
	}
	return domain.SourceType(strings.ToLower(c.SourceType))
}

// Entry converts the unit into a registry entry.
func (c *UnitConfig) Entry() registry.Entry {
	return registry.Entry{
		Identifier:       c.Identifier,
		Source:           c.source(),
		SourceType:       c.sourceType(),
		Zone:             c.Zone,
		CapacityMW:       c.CapacityMW,
		ProductionFilter: c.ProductionFilter,
	}
}

// Entries converts the configured units into registry entries.
func (c *Config) Entries() []registry.Entry {
	entries := make([]registry.Entry, 0, len(c.Units))
	for i := range c.Units {
		entries = append(entries, c.Units[i].Entry())
	}
	return entries
}
