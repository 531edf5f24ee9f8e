package search

import "strings"

// phoneticLength is the fixed length of a phonetic code.
const phoneticLength = 6

// phoneticClasses maps consonants to their sound class: labials, gutturals
// and sibilants, dentals, liquids, nasals and the rhotic. Vowels and H, Y
// have no class.
var phoneticClasses = [26]byte{
	'B' - 'A': '1', 'F' - 'A': '1', 'P' - 'A': '1', 'V' - 'A': '1', 'W' - 'A': '1',
	'C' - 'A': '2', 'G' - 'A': '2', 'J' - 'A': '2', 'K' - 'A': '2', 'Q' - 'A': '2',
	'S' - 'A': '2', 'X' - 'A': '2', 'Z' - 'A': '2',
	'D' - 'A': '3', 'T' - 'A': '3',
	'L' - 'A': '4',
	'M' - 'A': '5', 'N' - 'A': '5',
	'R' - 'A': '6',
}

// PhoneticCode returns a six character Soundex-like code: the first letter
// followed by the classes of the remaining consonants, with runs of the same
// class collapsed and the result padded with '0'. A classless letter ends a
// run. Words without ASCII letters have no code.
func PhoneticCode(word string) string {
	letters := make([]byte, 0, len(word))
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			letters = append(letters, c)
		}
	}
	if len(letters) == 0 {
		return ""
	}

	code := make([]byte, 1, phoneticLength)
	code[0] = letters[0]
	prev := phoneticClasses[letters[0]-'A']
	for _, c := range letters[1:] {
		if len(code) == phoneticLength {
			break
		}
		class := phoneticClasses[c-'A']
		switch {
		case class == 0:
			prev = 0
		case class != prev:
			code = append(code, class)
			prev = class
		}
	}
	return string(code) + strings.Repeat("0", phoneticLength-len(code))
}

// PhoneticMatch reports whether two codes are close: equal, or equal in
// their first four characters.
func PhoneticMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || a[:4] == b[:4]
}

type phoneticPair struct {
	query  string
	target string
}

// phoneticPairs lists the query/text word pairs of at least three characters
// that sound alike but are spelled differently.
func phoneticPairs(queryWords, textWords []string) []phoneticPair {
	var pairs []phoneticPair
	textCodes := make([]string, len(textWords))
	for i, w := range textWords {
		if len(w) >= 3 {
			textCodes[i] = PhoneticCode(w)
		}
	}
	for _, q := range queryWords {
		if len(q) < 3 {
			continue
		}
		qc := PhoneticCode(q)
		for i, w := range textWords {
			if len(w) < 3 || q == w {
				continue
			}
			if PhoneticMatch(qc, textCodes[i]) {
				pairs = append(pairs, phoneticPair{query: q, target: w})
			}
		}
	}
	return pairs
}
