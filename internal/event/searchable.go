package event

import "strings"

// SearchableText is the read-only text projection of an Event used for scoring.
type SearchableText struct {
	Name        string
	Description string
	Location    string
	Tags        []string

	// Combined is the lowercase concatenation of all fields joined by spaces
	Combined string
}

// Searchable builds the projection of e. The description is taken as
// written; markup characters are left for normalization to strip, so no
// word inside emphasis or an HTML block is lost.
func Searchable(e *Event) SearchableText {
	tags := append([]string(nil), e.Tags...)
	if tags == nil {
		tags = []string{}
	}

	parts := []string{e.Name, e.Description, e.Location, strings.Join(tags, " ")}
	return SearchableText{
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		Tags:        tags,
		Combined:    strings.ToLower(strings.Join(parts, " ")),
	}
}
