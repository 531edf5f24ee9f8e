package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// germanFolding expands the letters that must become digraphs before generic
// accent stripping would reduce them to a single vowel.
var germanFolding = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// Normalize canonicalizes text for comparison: lowercase, German digraphs,
// accents stripped, punctuation and hyphens turned into single spaces.
// The result only contains letters, digits, '_' and single spaces.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = germanFolding.Replace(norm.NFC.String(strings.ToLower(s)))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// words splits normalized text on spaces.
func words(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}
