package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

func TestScoreEvent_Neutral(t *testing.T) {
	for _, e := range testCorpus() {
		result := ScoreEvent(e, "", nil)
		assert.Equal(t, 1.0, result.Score, "event %s", e.ID)
		assert.Empty(t, result.Matches)
	}
	assert.Equal(t, 1.0, ScoreEvent(&event.Event{}, "", []string{}).Score)
}

func TestScoreEvent_TagGate(t *testing.T) {
	queries := []string{"", "Bergheim", "goblin", "xyzzy", "Schmied"}
	for _, e := range testCorpus() {
		for _, q := range queries {
			result := ScoreEvent(e, q, []string{"kampf", "handel"})
			assert.Equal(t, 0.0, result.Score, "event %s query %q", e.ID, q)
			assert.Empty(t, result.Matches)
		}
	}
}

func TestScoreEvent_TagOnly(t *testing.T) {
	e := &event.Event{ID: "k", Name: "Hinterhalt", Tags: []string{"Kampf"}}
	result := ScoreEvent(e, "", []string{"kampf"})

	require.Len(t, result.Matches, 1)
	assert.Equal(t, MatchTag, result.Matches[0].Type)
	assert.Equal(t, FieldTags, result.Matches[0].Field)
	assert.Equal(t, 100.0, result.TotalScore)
	assert.Equal(t, 100.0, result.Breakdown.TagBonus)
	assert.Equal(t, 0.0, result.Breakdown.TextScore)
	assert.InDelta(t, math.Log10(1.9), result.Score, 1e-9)
}

func TestScoreEvent_TagSubstring(t *testing.T) {
	e := &event.Event{ID: "k", Tags: []string{"Nahkampf"}}
	assert.Greater(t, ScoreEvent(e, "", []string{"KAMPF"}).Score, 0.0)
}

func TestScoreEvent_MultiFieldBonus(t *testing.T) {
	e := &event.Event{ID: "d", Name: "Drachenhort", Location: "Drachenhort"}
	result := ScoreEvent(e, "drachenhort", nil)

	assert.Equal(t, 100.0, result.Breakdown.MultiFieldBonus)
	assert.NotNil(t, findMatch(result.Matches, MatchExactPhrase))
}

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name    string
		words   []string
		matches []Match
		want    float64
	}{
		{"identical value", []string{"goblin"}, []Match{{Value: "goblin"}}, 1},
		{"value contains word", []string{"goblin"}, []Match{{Value: "goblins"}}, 0.5},
		{"word contains value", []string{"goblin"}, []Match{{Value: "gob"}}, 0.5},
		{"mixed", []string{"goblin", "angriff"}, []Match{{Value: "goblins"}, {Value: "angriff"}}, 0.75},
		{"uncovered", []string{"drache"}, []Match{{Value: "goblin"}}, 0},
		{"no words", nil, []Match{{Value: "goblin"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, completeness(tt.words, tt.matches), 1e-9)
		})
	}
}

func TestScoreEvent_ShortQueryPenalty(t *testing.T) {
	e := &event.Event{ID: "s", Name: "ab"}
	result := ScoreEvent(e, "ab", nil)

	// (400 exact + 112 exact_token + 100 completeness + 150 phrase) * 0.5
	assert.InDelta(t, 381.0, result.TotalScore, 1e-9)
	assert.InDelta(t, math.Log10(0.381*9+1), result.Score, 1e-9)
}

func TestScoreEvent_SuperFuzzy(t *testing.T) {
	e := &event.Event{ID: "c", Name: "cab"}
	result := ScoreEvent(e, "abc", nil)

	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, MatchSuperFuzzy, m.Type)
	assert.Equal(t, "cab", m.Matched)
	require.NotNil(t, m.Distance)
	assert.Equal(t, 2, *m.Distance)
	assert.InDelta(t, 40.0, result.TotalScore, 1e-9)
	assert.InDelta(t, math.Log10(1.36), result.Score, 1e-9)
}

func TestScoreEvent_PunctuationQuery(t *testing.T) {
	for _, e := range testCorpus() {
		result := ScoreEvent(e, "?!.,", nil)
		assert.Equal(t, 0.0, result.Score)
		assert.Empty(t, result.Matches)
	}
}

func TestScoreEvent_ScoreBounds(t *testing.T) {
	queries := []string{"Bergheim", "gobblin angrif", "schm", "a", "drache feuer", "ruestung", "xyzzy"}
	for _, e := range testCorpus() {
		for _, q := range queries {
			s := ScoreEvent(e, q, nil).Score
			assert.False(t, math.IsNaN(s))
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestScoreEvent_DoesNotMutate(t *testing.T) {
	for _, e := range testCorpus() {
		before := e.Clone()
		ScoreEvent(e, "Gespräch Schmied", []string{"handel"})
		assert.Equal(t, before, e)
	}
}
