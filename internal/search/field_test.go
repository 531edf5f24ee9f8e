package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMatch(matches []Match, typ MatchType) *Match {
	for i := range matches {
		if matches[i].Type == typ {
			return &matches[i]
		}
	}
	return nil
}

func TestScoreField_EmptyField(t *testing.T) {
	fs := ScoreField("", Tokenize("goblin"), "goblin", 400)
	assert.Zero(t, fs.Score)
	assert.Empty(t, fs.Matches)

	fs = ScoreField("!!!", Tokenize("goblin"), "goblin", 400)
	assert.Zero(t, fs.Score)
}

func TestScoreField_ExactAndExactToken(t *testing.T) {
	fs := ScoreField("Goblin Angriff", Tokenize("angriff"), "angriff", 400)
	require.GreaterOrEqual(t, len(fs.Matches), 2)

	exact := fs.Matches[0]
	assert.Equal(t, MatchExact, exact.Type)
	assert.Equal(t, 400.0, exact.Score)
	require.NotNil(t, exact.Position)
	assert.Equal(t, 7, *exact.Position)

	token := fs.Matches[1]
	assert.Equal(t, MatchExactToken, token.Type)
	assert.Equal(t, "angriff", token.Value)
	assert.InDelta(t, 280.0, token.Score, 1e-9)
}

func TestScoreField_ShortTokenScaled(t *testing.T) {
	fs := ScoreField("am Tor", Tokenize("am"), "am", 100)

	require.Len(t, fs.Matches, 2)
	assert.Equal(t, MatchExactToken, fs.Matches[1].Type)
	assert.InDelta(t, 28.0, fs.Matches[1].Score, 1e-9)
	assert.InDelta(t, 128.0, fs.Score, 1e-9)
}

func TestScoreField_Prefix(t *testing.T) {
	fs := ScoreField("Schmied", Tokenize("schm"), "schm", 400)

	var prefix *Match
	for i := range fs.Matches {
		m := &fs.Matches[i]
		if m.Type == MatchPrefix && m.Value == "schm" {
			prefix = m
		}
	}
	require.NotNil(t, prefix, "matches: %+v", fs.Matches)
	assert.Equal(t, "schmied", prefix.Matched)
	require.NotNil(t, prefix.Coverage)
	assert.InDelta(t, 4.0/7.0, *prefix.Coverage, 1e-9)
	assert.InDelta(t, 400*0.4*4.0/7.0, prefix.Score, 1e-9)
	assert.Nil(t, findMatch(fs.Matches, MatchSubstring), "a prefix is not also a substring")
}

func TestScoreField_Substring(t *testing.T) {
	fs := ScoreField("Schmied", Tokenize("mied"), "mied", 400)

	var sub *Match
	for i := range fs.Matches {
		m := &fs.Matches[i]
		if m.Type == MatchSubstring && m.Value == "mied" {
			sub = m
		}
	}
	require.NotNil(t, sub, "matches: %+v", fs.Matches)
	assert.Equal(t, "schmied", sub.Matched)
	require.NotNil(t, sub.Coverage)
	assert.InDelta(t, 4.0/7.0, *sub.Coverage, 1e-9)
	assert.InDelta(t, 400*0.2*4.0/7.0, sub.Score, 1e-9)
}

func TestScoreField_Fuzzy(t *testing.T) {
	fs := ScoreField("Goblin Angriff", Tokenize("gobblin"), "gobblin", 400)

	m := findMatch(fs.Matches, MatchFuzzyJaro)
	require.NotNil(t, m, "matches: %+v", fs.Matches)
	assert.Equal(t, "goblin", m.Matched)
	require.NotNil(t, m.Similarity)
	assert.Greater(t, *m.Similarity, jaroThreshold)
}

func TestScoreField_Phonetic(t *testing.T) {
	fs := ScoreField("Der Schmied", Tokenize("schmidt"), "schmidt", 100)

	m := findMatch(fs.Matches, MatchSoundex)
	require.NotNil(t, m, "matches: %+v", fs.Matches)
	assert.Equal(t, "schmidt", m.Value)
	assert.Equal(t, "schmied", m.Matched)
	assert.InDelta(t, 15.0, m.Score, 1e-9)
}

func TestScoreField_Ngram(t *testing.T) {
	fs := ScoreField("Goblin Angriff", Tokenize("goblin angrif"), "goblin angrif", 100)

	m := findMatch(fs.Matches, MatchNgram)
	require.NotNil(t, m)
	require.NotNil(t, m.Similarity)
	assert.InDelta(t, 11.0/12.0, *m.Similarity, 1e-9)
}

func TestScoreField_ReversePrefix(t *testing.T) {
	fs := ScoreField("Berg", Tokenize("bergheim"), "bergheim", 100)

	m := findMatch(fs.Matches, MatchReversePrefix)
	require.NotNil(t, m, "matches: %+v", fs.Matches)
	assert.Equal(t, "berg", m.Matched)
}
