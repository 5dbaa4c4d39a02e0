package registry

import (
	"context"

	"grid-ingest-lab/internal/domain"
)

// Entry maps one identifier to the source coordinates needed to fetch it.
type Entry struct {
	Identifier string
	Source     domain.Source
	SourceType domain.SourceType

	// Zone is the market zone or area the source scopes its queries by.
	// Empty means the identifier cannot be planned into a batch.
	Zone string

	// CapacityMW is the installed capacity reference for plausibility
	// flagging. Zero means unknown.
	CapacityMW float64

	// ProductionFilter restricts the fetch to one production
	// classification where the source supports it.
	ProductionFilter string
}

// Scope selects which identifiers a run ingests: an explicit identifier
// set, all identifiers for one source, or both combined (intersection).
// The zero Scope selects everything in the registry.
type Scope struct {
	Source      domain.Source
	Identifiers []string
}

// Resolver maps a scope onto registry entries. Implementations are
// read-only collaborators; the pipeline never mutates the registry.
type Resolver interface {
	Resolve(ctx context.Context, scope Scope) ([]Entry, error)
}
