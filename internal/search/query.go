package search

import (
	"maps"
	"strings"
)

// MaxQueryRunes is the longest query that is scored; longer queries are cut.
const MaxQueryRunes = 500

// DefaultAbbreviations expands shorthand commonly typed into the search box.
// Keys are lowercase and without trailing dots.
var DefaultAbbreviations = map[string]string{
	"u":    "und",
	"o":    "oder",
	"bzw":  "beziehungsweise",
	"usw":  "und so weiter",
	"ca":   "circa",
	"evtl": "eventuell",
	"ggf":  "gegebenenfalls",
	"str":  "strasse",
	"nsc":  "nichtspielercharakter",
	"sl":   "spielleiter",
	"hp":   "lebenspunkte",
}

// Abbreviations returns the built-in table with overrides merged on top.
// An override with an empty expansion removes the entry.
func Abbreviations(overrides map[string]string) map[string]string {
	table := maps.Clone(DefaultAbbreviations)
	for k, v := range overrides {
		k = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(k), "."))
		if k == "" {
			continue
		}
		if strings.TrimSpace(v) == "" {
			delete(table, k)
			continue
		}
		table[k] = strings.TrimSpace(v)
	}
	return table
}

// Preprocess trims and truncates a raw query and expands abbreviations word
// by word. Text between double quotes is passed through verbatim.
func Preprocess(raw string, abbreviations map[string]string) string {
	q := strings.TrimSpace(raw)
	if q == "" {
		return ""
	}
	if r := []rune(q); len(r) > MaxQueryRunes {
		q = string(r[:MaxQueryRunes])
	}
	if len(abbreviations) == 0 {
		return q
	}

	segments := strings.Split(q, `"`)
	for i := 0; i < len(segments); i += 2 {
		segments[i] = expand(segments[i], abbreviations)
	}
	return strings.TrimSpace(strings.Join(segments, `"`))
}

func expand(segment string, abbreviations map[string]string) string {
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return segment
	}
	for i, f := range fields {
		key := strings.ToLower(strings.TrimSuffix(f, "."))
		if exp, ok := abbreviations[key]; ok {
			fields[i] = exp
		}
	}
	out := strings.Join(fields, " ")
	if strings.HasPrefix(segment, " ") || strings.HasPrefix(segment, "\t") {
		out = " " + out
	}
	if strings.HasSuffix(segment, " ") || strings.HasSuffix(segment, "\t") {
		out += " "
	}
	return out
}

// preparedQuery is a query normalized and tokenized once per search.
type preparedQuery struct {
	raw        string
	normalized string
	words      []string
	tokens     *Tokens
}

func prepareQuery(raw string) preparedQuery {
	normalized := Normalize(raw)
	return preparedQuery{
		raw:        raw,
		normalized: normalized,
		words:      words(normalized),
		tokens:     Tokenize(normalized),
	}
}

// blank reports whether the query carries no text at all.
func (q preparedQuery) blank() bool {
	return strings.TrimSpace(q.raw) == ""
}
