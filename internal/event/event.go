package event

import (
	"regexp"
	"strings"
	"time"
)

// Date and time layouts used by EntryDate/EntryTime and EndDate/EndTime.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DefaultCampaign is used when an event is stored without a campaign.
const DefaultCampaign = "default"

// Event is one entry on a campaign timeline. Text fields are never nil;
// empty strings stand in for missing values.
type Event struct {
	// ID is an opaque identifier, stable across updates (ULID for events created here)
	ID string `json:"id"`

	// Campaign is the campaign name as provided by the user
	Campaign string `json:"campaign"`

	// CampaignNorm is the normalized campaign (lowercased, trimmed, collapsed spaces)
	CampaignNorm string `json:"campaign_norm"`

	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Tags        []string `json:"tags"`

	// EntryDate is the in-game start date (YYYY-MM-DD), EntryTime its time (HH:MM)
	EntryDate string `json:"entry_date"`
	EntryTime string `json:"entry_time"`

	// EndDate/EndTime are only meaningful when HasEndDateTime is set
	EndDate        string `json:"end_date"`
	EndTime        string `json:"end_time"`
	HasEndDateTime bool   `json:"has_end_date_time"`

	// CreatedAt is the Unix timestamp when the event was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the event was last updated
	UpdatedAt int64 `json:"updated_at"`
}

// Status describes where an event sits relative to a point in time.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusPast     Status = "past"
	StatusUndated  Status = "undated"
)

// momentWindow is how long an event without an end counts as active around its start.
const momentWindow = 30 * time.Minute

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeCampaign trims, lowercases and collapses internal whitespace.
func NormalizeCampaign(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// Start returns the start of the event. ok is false when the event has no
// date or the date/time cannot be parsed.
func (e *Event) Start() (time.Time, bool) {
	return parseDateTime(e.EntryDate, e.EntryTime, "00:00")
}

// End returns the end of the event. ok is false unless HasEndDateTime is set
// and the end date parses.
func (e *Event) End() (time.Time, bool) {
	if !e.HasEndDateTime {
		return time.Time{}, false
	}
	return parseDateTime(e.EndDate, e.EndTime, "23:59")
}

// Duration returns the span between start and end, or zero for momentary events.
func (e *Event) Duration() time.Duration {
	start, ok := e.Start()
	if !ok {
		return 0
	}
	end, ok := e.End()
	if !ok || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// StatusAt classifies the event relative to now.
func (e *Event) StatusAt(now time.Time) Status {
	start, ok := e.Start()
	if !ok {
		return StatusUndated
	}
	end, hasEnd := e.End()
	if !hasEnd {
		if now.Before(start.Add(-momentWindow)) {
			return StatusUpcoming
		}
		if now.After(start.Add(momentWindow)) {
			return StatusPast
		}
		return StatusActive
	}
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(end):
		return StatusPast
	default:
		return StatusActive
	}
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	c := *e
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	return &c
}

// ApplyDefaults replaces missing values so downstream code never sees nil tags
// or an empty campaign.
func (e *Event) ApplyDefaults() {
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if strings.TrimSpace(e.Campaign) == "" {
		e.Campaign = DefaultCampaign
	}
	e.CampaignNorm = NormalizeCampaign(e.Campaign)
	if e.CampaignNorm == "" {
		e.CampaignNorm = DefaultCampaign
	}
}

// parseDateTime parses date and clock in UTC. An empty clock uses fallback.
func parseDateTime(date, clock, fallback string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = fallback
	}
	t, err := time.Parse(DateLayout+"T"+TimeLayout, date+"T"+clock)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
