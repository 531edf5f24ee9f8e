package search

import "strings"

// Strategy multipliers applied to a field's weight.
const (
	exactFactor          = 1.0
	exactTokenFactor     = 0.7
	jaroFactor           = 0.5
	levenshteinFactor    = 0.3
	prefixFactor         = 0.4
	reversePrefixFactor  = 0.3
	substringFactor      = 0.2
	phoneticFactor       = 0.15
	ngramFactor          = 0.25
	jaroThreshold        = 0.8
	levenshteinThreshold = 0.75
	ngramThreshold       = 0.3
)

// FieldScore is the outcome of scoring one field.
type FieldScore struct {
	Score   float64
	Matches []Match
}

// fieldText is a field's normalized text split for matching.
type fieldText struct {
	text  string
	words []string
	set   map[string]struct{}
}

func newFieldText(raw string) fieldText {
	text := Normalize(raw)
	ws := words(text)
	set := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		set[w] = struct{}{}
	}
	return fieldText{text: text, words: ws, set: set}
}

// ScoreField scores raw field text against a tokenized query. normalizedQuery
// is the query as returned by Normalize; weight is the field's base weight.
func ScoreField(raw string, queryTokens *Tokens, normalizedQuery string, weight float64) FieldScore {
	return scoreField(newFieldText(raw), queryTokens, normalizedQuery, weight)
}

func scoreField(f fieldText, queryTokens *Tokens, normalizedQuery string, weight float64) FieldScore {
	if f.text == "" || normalizedQuery == "" {
		return FieldScore{}
	}

	var fs FieldScore
	add := func(m Match) {
		fs.Score += m.Score
		fs.Matches = append(fs.Matches, m)
	}

	if pos := strings.Index(f.text, normalizedQuery); pos >= 0 {
		add(Match{Type: MatchExact, Value: normalizedQuery, Score: weight * exactFactor, Position: intPtr(pos)})
	}

	for _, token := range queryTokens.List() {
		tokenLen := runeLen(token)
		if tokenLen < 2 {
			continue
		}

		if _, ok := f.set[token]; ok {
			add(Match{
				Type:     MatchExactToken,
				Value:    token,
				Score:    weight * exactTokenFactor * min(float64(tokenLen)/5, 1),
				Position: intPtr(strings.Index(f.text, token)),
			})
			continue
		}

		for _, word := range f.words {
			if runeLen(word) < 2 {
				continue
			}
			if sim := JaroWinklerSimilarity(token, word); sim > jaroThreshold {
				add(Match{Type: MatchFuzzyJaro, Value: token, Matched: word, Score: weight * jaroFactor * sim, Similarity: floatPtr(sim)})
				continue
			}
			if sim := LevenshteinSimilarity(token, word); sim > levenshteinThreshold {
				add(Match{Type: MatchFuzzyLevenshtein, Value: token, Matched: word, Score: weight * levenshteinFactor * sim, Similarity: floatPtr(sim)})
			}
		}

		for _, word := range f.words {
			wordLen := runeLen(word)
			if tokenLen >= 3 && strings.HasPrefix(word, token) {
				coverage := float64(tokenLen) / float64(wordLen)
				add(Match{Type: MatchPrefix, Value: token, Matched: word, Score: weight * prefixFactor * coverage, Coverage: floatPtr(coverage)})
			}
			if wordLen >= 3 && strings.HasPrefix(token, word) {
				coverage := float64(wordLen) / float64(tokenLen)
				add(Match{Type: MatchReversePrefix, Value: token, Matched: word, Score: weight * reversePrefixFactor * coverage, Coverage: floatPtr(coverage)})
			}
		}

		if tokenLen < 3 {
			continue
		}
		for _, word := range f.words {
			if strings.Contains(word, token) && !strings.HasPrefix(word, token) {
				coverage := float64(tokenLen) / float64(runeLen(word))
				add(Match{Type: MatchSubstring, Value: token, Matched: word, Score: weight * substringFactor * coverage, Coverage: floatPtr(coverage)})
			}
		}
	}

	queryLen := runeLen(normalizedQuery)
	if queryLen > 3 {
		if pairs := phoneticPairs(words(normalizedQuery), f.words); len(pairs) > 0 {
			total := weight * phoneticFactor * float64(len(pairs))
			each := total / float64(len(pairs))
			for _, p := range pairs {
				add(Match{Type: MatchSoundex, Value: p.query, Matched: p.target, Score: each})
			}
		}
	}
	if queryLen > 4 {
		if sim := NgramSimilarity(normalizedQuery, f.text, 3); sim > ngramThreshold {
			add(Match{Type: MatchNgram, Value: normalizedQuery, Score: weight * ngramFactor * sim, Similarity: floatPtr(sim)})
		}
	}

	return fs
}
