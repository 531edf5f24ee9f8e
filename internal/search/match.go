package search

import "github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"

// MatchType names the strategy that produced a Match.
type MatchType string

const (
	MatchExact              MatchType = "exact"
	MatchExactToken         MatchType = "exact_token"
	MatchFuzzyJaro          MatchType = "fuzzy_jaro"
	MatchFuzzyLevenshtein   MatchType = "fuzzy_levenshtein"
	MatchPrefix             MatchType = "prefix"
	MatchReversePrefix      MatchType = "reverse_prefix"
	MatchSubstring          MatchType = "substring"
	MatchSoundex            MatchType = "soundex"
	MatchNgram              MatchType = "ngram"
	MatchExactPhrase        MatchType = "exact_phrase"
	MatchTag                MatchType = "tag"
	MatchSuperFuzzy         MatchType = "super_fuzzy"
	MatchSuperFuzzyFallback MatchType = "super_fuzzy_fallback"
)

// Field labels used on matches.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldLocation    = "location"
	FieldTags        = "tags"
	FieldCombined    = "combined"
)

// Match records one contribution to an event's score.
type Match struct {
	Type  MatchType `json:"type"`
	Field string    `json:"field,omitempty"`

	// Value is the query token (or tag, or whole query) that matched
	Value string `json:"value"`

	// Matched is the field word the value was compared against, if any
	Matched string `json:"matched,omitempty"`

	Score      float64  `json:"score"`
	Position   *int     `json:"position,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
	Distance   *int     `json:"distance,omitempty"`
	Coverage   *float64 `json:"coverage,omitempty"`
}

// Breakdown splits a raw total into its sources.
type Breakdown struct {
	TagBonus        float64 `json:"tag_bonus"`
	TextScore       float64 `json:"text_score"`
	MultiFieldBonus float64 `json:"multi_field_bonus"`
}

// ScoreResult is the outcome of scoring one event against one query.
type ScoreResult struct {
	// Score is the log-compressed relevance in [0,1]
	Score float64 `json:"score"`

	Matches []Match `json:"matches"`

	// TotalScore is the raw, uncompressed sum of all contributions
	TotalScore float64   `json:"total_score"`
	Breakdown  Breakdown `json:"breakdown"`
}

// ScoredResult pairs an event with its relevance. Matches is nil unless
// scoring details were requested.
type ScoredResult struct {
	Event   *event.Event `json:"event"`
	Score   float64      `json:"score"`
	Matches []Match      `json:"matches,omitempty"`
}

// StripScoring returns the bare events of results, in order.
func StripScoring(results []ScoredResult) []*event.Event {
	events := make([]*event.Event, len(results))
	for i, r := range results {
		events[i] = r.Event
	}
	return events
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
