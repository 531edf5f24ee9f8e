package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// UnnamedEvent is the name given to imported events without one.
const UnnamedEvent = "Unnamed event"

var germanDateRegex = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)

// Record is an event as it appears in import files. It accepts the loose
// shapes older timeline files used: numeric ids, comma-separated tag strings,
// DD.MM.YYYY dates and RFC 3339 timestamps.
type Record struct {
	ID             FlexString `json:"id"`
	Campaign       string     `json:"campaign,omitempty"`
	Name           string     `json:"name"`
	Title          string     `json:"title,omitempty"` // legacy alias for name
	Description    string     `json:"description"`
	Location       string     `json:"location"`
	Place          string     `json:"place,omitempty"` // legacy alias for location
	Tags           TagList    `json:"tags"`
	EntryDate      string     `json:"entry_date"`
	EntryTime      string     `json:"entry_time"`
	EndDate        string     `json:"end_date"`
	EndTime        string     `json:"end_time"`
	HasEndDateTime bool       `json:"hasEndDateTime"`
	HasEndSnake    bool       `json:"has_end_date_time,omitempty"`
	CreatedAt      Timestamp  `json:"created_at"`
	UpdatedAt      Timestamp  `json:"updated_at"`
}

// FromRecord converts a Record to an Event, filling defaults. now is used for
// missing timestamps.
func FromRecord(r *Record, now time.Time) *Event {
	e := &Event{
		ID:             strings.TrimSpace(string(r.ID)),
		Campaign:       r.Campaign,
		Name:           strings.TrimSpace(r.Name),
		Description:    r.Description,
		Location:       r.Location,
		Tags:           []string(r.Tags),
		EntryDate:      ConvertDate(r.EntryDate),
		EntryTime:      strings.TrimSpace(r.EntryTime),
		EndDate:        ConvertDate(r.EndDate),
		EndTime:        strings.TrimSpace(r.EndTime),
		HasEndDateTime: r.HasEndDateTime || r.HasEndSnake,
		CreatedAt:      int64(r.CreatedAt),
		UpdatedAt:      int64(r.UpdatedAt),
	}
	if e.Name == "" {
		e.Name = strings.TrimSpace(r.Title)
	}
	if e.Name == "" {
		e.Name = UnnamedEvent
	}
	if e.Location == "" {
		e.Location = r.Place
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = now.Unix()
	}
	if e.UpdatedAt == 0 {
		e.UpdatedAt = e.CreatedAt
	}
	e.ApplyDefaults()
	return e
}

// ToRecord converts an Event to its import/export shape.
func ToRecord(e *Event) *Record {
	return &Record{
		ID:             FlexString(e.ID),
		Campaign:       e.Campaign,
		Name:           e.Name,
		Description:    e.Description,
		Location:       e.Location,
		Tags:           TagList(e.Tags),
		EntryDate:      e.EntryDate,
		EntryTime:      e.EntryTime,
		EndDate:        e.EndDate,
		EndTime:        e.EndTime,
		HasEndDateTime: e.HasEndDateTime,
		CreatedAt:      Timestamp(e.CreatedAt),
		UpdatedAt:      Timestamp(e.UpdatedAt),
	}
}

// ConvertDate turns DD.MM.YYYY into YYYY-MM-DD. Other inputs are returned trimmed.
func ConvertDate(s string) string {
	s = strings.TrimSpace(s)
	m := germanDateRegex.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
}

// FlexString decodes either a JSON string or a JSON number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// TagList decodes either a JSON array of strings or a comma-separated string.
type TagList []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = SplitTags(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = CleanTags(list)
	return nil
}

// SplitTags splits a comma-separated string into trimmed, non-empty tags.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	return CleanTags(strings.Split(s, ","))
}

// CleanTags trims tags and drops empty ones and exact duplicates.
func CleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// Timestamp decodes Unix seconds or an RFC 3339 string into Unix seconds.
// Unparseable strings decode to zero.
type Timestamp int64

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*ts = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		if err != nil {
			*ts = 0
			return nil
		}
		*ts = Timestamp(t.Unix())
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*ts = Timestamp(n)
	return nil
}
