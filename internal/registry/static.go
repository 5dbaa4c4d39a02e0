package registry

import (
	"context"
	"sort"
)

// Static is a Resolver backed by a fixed entry list, typically loaded from
// configuration or seeded by the surrounding platform.
type Static struct {
	entries []Entry
}

// NewStatic creates a resolver over a copy of the given entries.
func NewStatic(entries []Entry) *Static {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Static{entries: cp}
}

// Resolve filters the entry list by scope. Results are ordered by
// (source, source type, identifier). Requested identifiers unknown to the
// registry are simply absent from the result; the caller decides whether
// that is an error.
func (s *Static) Resolve(_ context.Context, scope Scope) ([]Entry, error) {
	var wanted map[string]bool
	if len(scope.Identifiers) > 0 {
		wanted = make(map[string]bool, len(scope.Identifiers))
		for _, id := range scope.Identifiers {
			wanted[id] = true
		}
	}

	var out []Entry
	for _, e := range s.entries {
		if scope.Source != "" && e.Source != scope.Source {
			continue
		}
		if wanted != nil && !wanted[e.Identifier] {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		if out[i].SourceType != out[j].SourceType {
			return out[i].SourceType < out[j].SourceType
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out, nil
}
