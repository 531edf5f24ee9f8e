package search

import (
	"math"
	"strings"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// Field weights and event-level bonuses. Raw totals are compressed against
// maxRawScore.
const (
	weightName        = 400
	weightDescription = 250
	weightLocation    = 200
	weightTags        = 150

	tagBonus          = 100
	multiFieldBonus   = 50
	completenessBonus = 100
	exactPhraseBonus  = 150
	shortQueryPenalty = 0.5
	shortQueryRunes   = 3
	superFuzzyFactor  = 0.12
	maxRawScore       = 1000
)

// ScoreEvent scores e against a raw query and a tag filter. It does not
// modify e.
func ScoreEvent(e *event.Event, query string, selectedTags []string) ScoreResult {
	return scoreDocument(newDocument(e, 0), prepareQuery(query), selectedTags)
}

func scoreDocument(d *document, q preparedQuery, selectedTags []string) ScoreResult {
	if q.blank() && len(selectedTags) == 0 {
		return ScoreResult{Score: 1, Matches: []Match{}}
	}

	var total float64
	var matches []Match

	var tagTotal float64
	if len(selectedTags) > 0 {
		if !hasAllTags(d.tagsLower, selectedTags) {
			return ScoreResult{Matches: []Match{}}
		}
		tagTotal = float64(tagBonus * len(selectedTags))
		total += tagTotal
		for _, tag := range selectedTags {
			matches = append(matches, Match{Type: MatchTag, Field: FieldTags, Value: tag})
		}
	}

	var fieldBonus float64
	if !q.blank() && q.normalized != "" {
		collect := func(field string, fs FieldScore) {
			if fs.Score <= 0 {
				return
			}
			total += fs.Score
			for _, m := range fs.Matches {
				m.Field = field
				matches = append(matches, m)
			}
		}
		collect(FieldName, scoreField(d.name, q.tokens, q.normalized, weightName))
		collect(FieldDescription, scoreField(d.description, q.tokens, q.normalized, weightDescription))
		collect(FieldLocation, scoreField(d.location, q.tokens, q.normalized, weightLocation))
		for _, tag := range d.tags {
			collect(FieldTags, scoreField(tag, q.tokens, q.normalized, weightTags))
		}

		if fields := distinctFields(matches); fields > 1 {
			fieldBonus = float64(multiFieldBonus * fields)
			total += fieldBonus
		}

		total += completeness(q.words, matches) * completenessBonus

		if strings.Contains(d.combined, q.normalized) {
			total += exactPhraseBonus
			matches = append(matches, Match{Type: MatchExactPhrase, Field: FieldCombined, Value: q.raw, Score: exactPhraseBonus})
		}

		if runeLen(q.normalized) < shortQueryRunes {
			total *= shortQueryPenalty
		}

		if total == 0 {
			if word, dist, ok := closestWord(q.normalized, d.allWords); ok && distanceRatio(dist, q.normalized) > 0 {
				total = superFuzzyFactor * maxRawScore * distanceRatio(dist, q.normalized)
				matches = append(matches, Match{
					Type:     MatchSuperFuzzy,
					Value:    q.raw,
					Matched:  word,
					Distance: intPtr(dist),
					Score:    total,
				})
			}
		}
	}

	if matches == nil {
		matches = []Match{}
	}
	return ScoreResult{
		Score:      compress(total),
		Matches:    matches,
		TotalScore: total,
		Breakdown: Breakdown{
			TagBonus:        tagTotal,
			TextScore:       total - tagTotal,
			MultiFieldBonus: fieldBonus,
		},
	}
}

// hasAllTags reports whether every selected tag is a case-insensitive
// substring of at least one event tag.
func hasAllTags(eventTagsLower, selected []string) bool {
	for _, want := range selected {
		want = strings.ToLower(want)
		found := false
		for _, have := range eventTagsLower {
			if strings.Contains(have, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func distinctFields(matches []Match) int {
	seen := make(map[string]struct{}, 4)
	for _, m := range matches {
		seen[m.Field] = struct{}{}
	}
	return len(seen)
}

// completeness is the share of query words covered by match values: a full
// credit for an identical value, half a credit when one contains the other.
func completeness(queryWords []string, matches []Match) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	values := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.Value]; ok || m.Value == "" {
			continue
		}
		seen[m.Value] = struct{}{}
		values = append(values, m.Value)
	}

	var credit float64
	for _, w := range queryWords {
		if _, ok := seen[w]; ok {
			credit++
			continue
		}
		for _, v := range values {
			if strings.Contains(v, w) || strings.Contains(w, v) {
				credit += 0.5
				break
			}
		}
	}
	return credit / float64(len(queryWords))
}

// closestWord finds the word with the smallest edit distance to query and
// reports whether it is within the super-fuzzy tolerance.
func closestWord(query string, candidates []string) (string, int, bool) {
	if query == "" {
		return "", 0, false
	}
	best, bestDist := "", math.MaxInt
	for _, w := range candidates {
		if d := LevenshteinDistance(w, query); d < bestDist {
			best, bestDist = w, d
		}
	}
	if best == "" || bestDist >= fuzzyTolerance(query) {
		return "", 0, false
	}
	return best, bestDist, true
}

// fuzzyTolerance is the exclusive upper bound on edit distance for the
// super-fuzzy passes.
func fuzzyTolerance(query string) int {
	return max(4, len(query)/2)
}

func distanceRatio(dist int, query string) float64 {
	return 1 - float64(dist)/float64(max(len(query), 1))
}

// compress maps a raw total onto [0,1] logarithmically.
func compress(total float64) float64 {
	if total <= 0 || math.IsNaN(total) {
		return 0
	}
	normalized := math.Min(total/maxRawScore, 1)
	return clamp01(math.Log10(normalized*9 + 1))
}
