// Package search implements Spire's permission-gated journal search: a
// query planner that turns raw requests into backend-neutral planned
// queries, and a gateway that authorizes, executes and paginates them
// against per-journal indices (pkg/search/index).
package search

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilterSyntax is returned at plan time for malformed filter
// items, before the index is ever touched.
var ErrInvalidFilterSyntax = errors.New("invalid filter syntax")

// PlannedQuery is the validated, backend-neutral representation of a
// search request. An empty Query matches every entry in the index; all
// required tags must be present on a matching entry.
type PlannedQuery struct {
	Query        string
	RequiredTags []string
}

// Plan parses a raw query string and a list of tag filters into a
// PlannedQuery. Filters use the `tag:value` form; the `#value` shorthand
// from the journal query language is also accepted. Plan is a pure
// function: no I/O, same inputs always produce the same planned query.
func Plan(rawQuery string, tagFilters []string) (PlannedQuery, error) {
	planned := PlannedQuery{Query: strings.TrimSpace(rawQuery)}

	for _, item := range tagFilters {
		if strings.HasPrefix(item, "#") && len(item) > 1 {
			planned.RequiredTags = append(planned.RequiredTags, item[1:])
			continue
		}

		kind, value, found := strings.Cut(item, ":")
		if !found {
			return PlannedQuery{}, fmt.Errorf("%w: missing ':' in %q", ErrInvalidFilterSyntax, item)
		}
		if kind != "tag" {
			return PlannedQuery{}, fmt.Errorf("%w: unknown filter type %q", ErrInvalidFilterSyntax, kind)
		}
		if value == "" {
			return PlannedQuery{}, fmt.Errorf("%w: empty tag in %q", ErrInvalidFilterSyntax, item)
		}
		planned.RequiredTags = append(planned.RequiredTags, value)
	}

	return planned, nil
}
