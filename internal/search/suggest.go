package search

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// DefaultSuggestionLimit is used when the caller asks for no particular count.
const DefaultSuggestionLimit = 8

// minSuggestionRunes is the shortest partial query that yields suggestions.
const minSuggestionRunes = 2

// Suggestions returns words from the events' text that start with partial,
// case-insensitively. Shorter words come first, then alphabetical order.
func (ix *Index) Suggestions(events []*event.Event, partial string, limit int) []string {
	prefix := strings.ToLower(partial)
	if runeLen(prefix) < minSuggestionRunes {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	seen := make(map[string]struct{})
	var found []string
	for _, e := range events {
		for _, w := range strings.FieldsFunc(ix.cache.document(e).text.Combined, notWordRune) {
			w = strings.Trim(w, "-_")
			if runeLen(w) < 2 || !strings.HasPrefix(w, prefix) {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			found = append(found, w)
		}
	}

	slices.SortFunc(found, func(a, b string) int {
		if c := cmp.Compare(runeLen(a), runeLen(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(found) > limit {
		found = found[:limit]
	}
	if found == nil {
		found = []string{}
	}
	return found
}

// notWordRune separates suggestion words. Hyphens stay so compound names
// like "goblin-überfall" are offered whole; markup characters split.
func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
}

// Tags returns the distinct tags of events in sorted order.
func Tags(events []*event.Event) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range events {
		for _, tag := range e.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return out
}
