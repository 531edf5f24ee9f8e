package event

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameChars bounds event names; longer names are rejected on add/update.
const MaxNameChars = 200

// ValidateResult contains the problems found in an event.
type ValidateResult struct {
	Valid    bool
	Problems []string
}

// Validate checks an event before it is stored. It never mutates the event.
func Validate(e *Event) *ValidateResult {
	result := &ValidateResult{Valid: true}
	add := func(p string) {
		result.Problems = append(result.Problems, p)
		result.Valid = false
	}

	name := strings.TrimSpace(e.Name)
	if name == "" {
		add("name is required")
	} else if utf8.RuneCountInString(name) > MaxNameChars {
		add("name exceeds maximum length")
	}

	if strings.TrimSpace(e.EntryDate) == "" {
		add("entry_date is required")
	} else if !validDate(e.EntryDate) {
		add("entry_date must be YYYY-MM-DD")
	}
	if e.EntryTime != "" && !validClock(e.EntryTime) {
		add("entry_time must be HH:MM")
	}

	if e.HasEndDateTime {
		switch {
		case strings.TrimSpace(e.EndDate) == "":
			add("end_date is required when a time range is set")
		case !validDate(e.EndDate):
			add("end_date must be YYYY-MM-DD")
		case e.EndTime != "" && !validClock(e.EndTime):
			add("end_time must be HH:MM")
		default:
			start, okStart := e.Start()
			end, okEnd := e.End()
			if okStart && okEnd && !end.After(start) {
				add("end must be after start")
			}
		}
	}

	return result
}

func validDate(s string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return err == nil
}

func validClock(s string) bool {
	_, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	return err == nil
}
