package search

import (
	"math"
	"strings"
)

// SortBy selects the result ordering.
type SortBy string

const (
	SortRelevance SortBy = "relevance"
	SortDate      SortBy = "date"
	SortName      SortBy = "name"

	// SortStatus depends on the caller's clock; the index orders by
	// relevance and callers re-sort.
	SortStatus SortBy = "status"
)

// Search defaults.
const (
	DefaultMinScore   = 0.02
	DefaultMaxResults = 200
)

// Options tune a single search.
type Options struct {
	MinScore       float64
	MaxResults     int
	SortBy         SortBy
	IncludeScoring bool
	BoostRecent    bool
}

// DefaultOptions returns the options used when the caller sets none.
func DefaultOptions() Options {
	return Options{
		MinScore:   DefaultMinScore,
		MaxResults: DefaultMaxResults,
		SortBy:     SortRelevance,
	}
}

// ParseSortBy maps a user supplied sort key onto SortBy. Unknown keys sort by
// relevance.
func ParseSortBy(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortDate:
		return SortDate
	case SortName:
		return SortName
	case SortStatus:
		return SortStatus
	default:
		return SortRelevance
	}
}

// sanitize clamps invalid values to safe defaults instead of failing.
func (o Options) sanitize() Options {
	if math.IsNaN(o.MinScore) || o.MinScore < 0 {
		o.MinScore = 0
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	o.SortBy = ParseSortBy(string(o.SortBy))
	return o
}
