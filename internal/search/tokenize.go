package search

import (
	"strings"
	"unicode/utf8"
)

// stemEndings are German suffixes stripped by Stem, tried in order.
var stemEndings = []string{
	"ungen", "ung", "heit", "keit", "schaft", "lich", "los", "bar", "sam",
	"voll", "reich", "arm", "frei", "leer", "fest", "stark", "schwach",
	"gut", "schlecht", "gross", "klein", "neu", "alt", "jung",
	"en", "er", "es", "em", "e", "s", "t", "n",
}

// minStemLength is the shortest remainder a suffix may leave behind.
const minStemLength = 3

// Stem strips the first matching German ending from word, provided at least
// three characters remain. Words of three characters or less are returned
// unchanged.
func Stem(word string) string {
	n := runeLen(word)
	if n <= minStemLength {
		return word
	}
	for _, ending := range stemEndings {
		if strings.HasSuffix(word, ending) && n-len(ending) >= minStemLength {
			return word[:len(word)-len(ending)]
		}
	}
	return word
}

// Tokens is an insertion-ordered set of tokens.
type Tokens struct {
	list []string
	seen map[string]struct{}
}

func newTokens() *Tokens {
	return &Tokens{seen: make(map[string]struct{})}
}

func (t *Tokens) add(tok string) {
	if _, ok := t.seen[tok]; ok {
		return
	}
	t.seen[tok] = struct{}{}
	t.list = append(t.list, tok)
}

// Has reports whether tok is in the set.
func (t *Tokens) Has(tok string) bool {
	_, ok := t.seen[tok]
	return ok
}

// Len returns the number of distinct tokens.
func (t *Tokens) Len() int {
	return len(t.list)
}

// List returns the tokens in the order they were generated.
func (t *Tokens) List() []string {
	return t.list
}

// Tokenize expands normalized text into the tokens a query can match with:
// words, stems, bigrams and trigrams, prefixes, suffixes and skip-bigrams.
func Tokenize(normalized string) *Tokens {
	tokens := newTokens()

	var ws []string
	for _, w := range words(normalized) {
		if runeLen(w) > 1 {
			ws = append(ws, w)
		}
	}

	for _, w := range ws {
		tokens.add(w)
		if runeLen(w) > 4 {
			tokens.add(Stem(w))
		}
	}
	for i := 0; i+1 < len(ws); i++ {
		tokens.add(ws[i] + " " + ws[i+1])
	}
	for i := 0; i+2 < len(ws); i++ {
		tokens.add(ws[i] + " " + ws[i+1] + " " + ws[i+2])
	}
	for _, w := range ws {
		r := []rune(w)
		if len(r) > 3 {
			for n := 3; n <= min(len(r), 8); n++ {
				tokens.add(string(r[:n]))
			}
		}
	}
	for _, w := range ws {
		r := []rune(w)
		if len(r) > 4 {
			for i := max(3, len(r)-5); i < len(r); i++ {
				tokens.add(string(r[i:]))
			}
		}
	}
	for i := 0; i+2 < len(ws); i++ {
		tokens.add(ws[i] + " " + ws[i+2])
	}

	return tokens
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
