package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	Campaign       string // default: "default"
	Name           string // required
	Description    string
	Location       string
	Tags           []string
	EntryDate      string // required, YYYY-MM-DD or DD.MM.YYYY
	EntryTime      string // HH:MM
	EndDate        string
	EndTime        string
	HasEndDateTime bool
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	ID       string `json:"id"`
	Campaign string `json:"campaign"`
}

// Add validates and stores a new event.
func Add(ctx context.Context, database *sql.DB, input AddInput) (*AddOutput, error) {
	now := time.Now().Unix()
	e := &event.Event{
		Campaign:       strings.TrimSpace(input.Campaign),
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		Location:       strings.TrimSpace(input.Location),
		Tags:           event.CleanTags(input.Tags),
		EntryDate:      event.ConvertDate(input.EntryDate),
		EntryTime:      strings.TrimSpace(input.EntryTime),
		EndDate:        event.ConvertDate(input.EndDate),
		EndTime:        strings.TrimSpace(input.EndTime),
		HasEndDateTime: input.HasEndDateTime,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	e.ApplyDefaults()

	if result := event.Validate(e); !result.Valid {
		return nil, errors.NewInvalidEvent(result.Problems)
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	e.ID = id

	if err := db.Insert(ctx, database, e); err != nil {
		return nil, contextError(ctx, err)
	}

	return &AddOutput{ID: id, Campaign: e.Campaign}, nil
}
