package search

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// DefaultCacheSize is the number of events whose projections are kept.
const DefaultCacheSize = 4096

// document is an event's searchable projection with its fields normalized.
type document struct {
	stamp uint64
	text  event.SearchableText

	name        fieldText
	description fieldText
	location    fieldText
	tags        []fieldText
	tagsLower   []string

	// combined is the normalized concatenation of every field
	combined string
	// allWords are the normalized words of every field and tag
	allWords []string
}

func newDocument(e *event.Event, stamp uint64) *document {
	st := event.Searchable(e)
	d := &document{
		stamp:       stamp,
		text:        st,
		name:        newFieldText(st.Name),
		description: newFieldText(st.Description),
		location:    newFieldText(st.Location),
		tags:        make([]fieldText, len(st.Tags)),
		tagsLower:   make([]string, len(st.Tags)),
	}
	for i, tag := range st.Tags {
		d.tags[i] = newFieldText(tag)
		d.tagsLower[i] = strings.ToLower(tag)
	}

	parts := []string{d.name.text, d.description.text, d.location.text}
	for _, t := range d.tags {
		parts = append(parts, t.text)
	}
	d.combined = strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	d.allWords = words(d.combined)
	return d
}

// stampOf hashes the text-bearing fields of e.
func stampOf(e *event.Event) uint64 {
	h := xxhash.New()
	for _, s := range []string{e.Name, e.Description, e.Location} {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}
	for _, tag := range e.Tags {
		_, _ = h.WriteString(tag)
		_, _ = h.Write([]byte{1})
	}
	return h.Sum64()
}

// TextCache holds searchable projections keyed by event id. An entry is only
// served while its stamp matches the event's current text, so a missed
// Invalidate can never produce stale results. Safe for concurrent use.
type TextCache struct {
	entries *lru.Cache[string, *document]
}

// NewTextCache creates a cache holding up to size projections. A size of zero
// or less uses DefaultCacheSize.
func NewTextCache(size int) *TextCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *document](size)
	if err != nil {
		// only returned for non-positive sizes
		panic(err)
	}
	return &TextCache{entries: entries}
}

// Get returns the projection of e, computing and storing it when missing or
// out of date.
func (c *TextCache) Get(e *event.Event) event.SearchableText {
	return c.document(e).text
}

func (c *TextCache) document(e *event.Event) *document {
	stamp := stampOf(e)
	if c == nil || e.ID == "" {
		return newDocument(e, stamp)
	}
	if d, ok := c.entries.Get(e.ID); ok && d.stamp == stamp {
		return d
	}
	d := newDocument(e, stamp)
	c.entries.Add(e.ID, d)
	return d
}

// Invalidate drops the projection of one event.
func (c *TextCache) Invalidate(id string) {
	if c == nil {
		return
	}
	c.entries.Remove(id)
}

// Purge drops every projection.
func (c *TextCache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

// Len returns the number of cached projections.
func (c *TextCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
