package search

import "github.com/xrash/smetrics"

// LevenshteinDistance is the edit distance between a and b with unit costs
// for insertion, deletion and substitution.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	return smetrics.WagnerFischer(a, b, 1, 1, 1)
}

// LevenshteinSimilarity is 1 - distance/max(len). Two empty strings are identical.
func LevenshteinSimilarity(a, b string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(LevenshteinDistance(a, b))/float64(longest)
}

// JaroSimilarity is the standard Jaro similarity. Identical strings score 1,
// otherwise an empty operand scores 0.
func JaroSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return clamp01(smetrics.Jaro(a, b))
}

// JaroWinklerSimilarity boosts the Jaro score by 0.1 per shared leading
// byte, up to four.
func JaroWinklerSimilarity(a, b string) float64 {
	jaro := JaroSimilarity(a, b)
	prefix := 0
	for i := 0; i < min(4, len(a), len(b)); i++ {
		if a[i] != b[i] {
			break
		}
		prefix++
	}
	return clamp01(jaro + 0.1*float64(prefix)*(1-jaro))
}

// NgramSimilarity is the Jaccard index of the n-gram sets of a and b. Two
// strings too short to yield any n-gram are identical; one such string
// shares nothing with the other.
func NgramSimilarity(a, b string, n int) float64 {
	if n <= 0 {
		n = 3
	}
	setA := ngrams(a, n)
	setB := ngrams(b, n)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for g := range setA {
		if _, ok := setB[g]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

func ngrams(s string, n int) map[string]struct{} {
	if len(s) < n {
		return nil
	}
	set := make(map[string]struct{}, len(s)-n+1)
	for i := 0; i+n <= len(s); i++ {
		set[s[i:i+n]] = struct{}{}
	}
	return set
}

// clamp01 keeps floating point drift and NaN out of the ranking.
func clamp01(f float64) float64 {
	switch {
	case f != f:
		return 0
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
