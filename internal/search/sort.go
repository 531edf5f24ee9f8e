package search

import (
	"slices"
	"strings"
	"time"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// candidate is a result plus the keys used to break ties.
type candidate struct {
	ScoredResult
	order      int
	exact      int
	matchCount int
	fields     int
	start      time.Time
	dated      bool
	nameLower  string
}

func newCandidate(order int, e *event.Event, score float64, matches []Match) candidate {
	c := candidate{
		ScoredResult: ScoredResult{Event: e, Score: score, Matches: matches},
		order:        order,
		matchCount:   len(matches),
		fields:       distinctTextFields(matches),
		nameLower:    strings.ToLower(e.Name),
	}
	for _, m := range matches {
		if m.Type == MatchExact || m.Type == MatchExactToken {
			c.exact++
		}
	}
	c.start, c.dated = e.Start()
	return c
}

func distinctTextFields(matches []Match) int {
	seen := make(map[string]struct{}, 4)
	for _, m := range matches {
		if m.Field != "" {
			seen[m.Field] = struct{}{}
		}
	}
	return len(seen)
}

// compareStart orders dated events chronologically and undated ones last.
func compareStart(a, b *candidate) int {
	switch {
	case a.dated && b.dated:
		return a.start.Compare(b.start)
	case a.dated:
		return -1
	case b.dated:
		return 1
	default:
		return 0
	}
}

func compareScoreDesc(a, b *candidate) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	default:
		return 0
	}
}

func compareIntDesc(a, b int) int {
	return b - a
}

func sortCandidates(cs []candidate, by SortBy) {
	var cmp func(a, b *candidate) int
	switch by {
	case SortDate:
		cmp = func(a, b *candidate) int {
			if c := compareStart(a, b); c != 0 {
				return c
			}
			return compareScoreDesc(a, b)
		}
	case SortName:
		cmp = func(a, b *candidate) int {
			if c := strings.Compare(a.nameLower, b.nameLower); c != 0 {
				return c
			}
			return compareScoreDesc(a, b)
		}
	default:
		cmp = func(a, b *candidate) int {
			if c := compareScoreDesc(a, b); c != 0 {
				return c
			}
			if c := compareIntDesc(a.exact, b.exact); c != 0 {
				return c
			}
			if c := compareIntDesc(a.matchCount, b.matchCount); c != 0 {
				return c
			}
			if c := compareIntDesc(a.fields, b.fields); c != 0 {
				return c
			}
			return compareStart(a, b)
		}
	}
	slices.SortStableFunc(cs, func(a, b candidate) int {
		if c := cmp(&a, &b); c != 0 {
			return c
		}
		return a.order - b.order
	})
}

// SortByDate orders events by start, undated last, keeping input order for ties.
func SortByDate(events []*event.Event) []*event.Event {
	out := slices.Clone(events)
	starts := make(map[*event.Event]candidate, len(events))
	for _, e := range out {
		c := candidate{}
		c.start, c.dated = e.Start()
		starts[e] = c
	}
	slices.SortStableFunc(out, func(a, b *event.Event) int {
		ca, cb := starts[a], starts[b]
		return compareStart(&ca, &cb)
	})
	return out
}
