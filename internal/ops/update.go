package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID string // required

	// Editable fields (nil = don't change)
	Campaign       *string
	Name           *string
	Description    *string
	Location       *string
	Tags           *[]string
	EntryDate      *string
	EntryTime      *string
	EndDate        *string
	EndTime        *string
	HasEndDateTime *bool
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updated_at"`
}

func (in UpdateInput) empty() bool {
	return in.Campaign == nil && in.Name == nil && in.Description == nil && in.Location == nil &&
		in.Tags == nil && in.EntryDate == nil && in.EntryTime == nil && in.EndDate == nil &&
		in.EndTime == nil && in.HasEndDateTime == nil
}

// Update modifies an existing event and drops its cached search text.
func Update(ctx context.Context, database *sql.DB, ix *search.Index, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.empty() {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	e, err := db.GetByID(ctx, database, id)
	if err != nil {
		return nil, err
	}

	if input.Campaign != nil {
		e.Campaign = strings.TrimSpace(*input.Campaign)
	}
	if input.Name != nil {
		e.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		e.Description = *input.Description
	}
	if input.Location != nil {
		e.Location = strings.TrimSpace(*input.Location)
	}
	if input.Tags != nil {
		e.Tags = event.CleanTags(*input.Tags)
	}
	if input.EntryDate != nil {
		e.EntryDate = event.ConvertDate(*input.EntryDate)
	}
	if input.EntryTime != nil {
		e.EntryTime = strings.TrimSpace(*input.EntryTime)
	}
	if input.EndDate != nil {
		e.EndDate = event.ConvertDate(*input.EndDate)
	}
	if input.EndTime != nil {
		e.EndTime = strings.TrimSpace(*input.EndTime)
	}
	if input.HasEndDateTime != nil {
		e.HasEndDateTime = *input.HasEndDateTime
	}
	e.ApplyDefaults()

	if result := event.Validate(e); !result.Valid {
		return nil, errors.NewInvalidEvent(result.Problems)
	}

	if err := db.Update(ctx, database, e); err != nil {
		return nil, contextError(ctx, err)
	}
	if ix != nil {
		ix.Invalidate(e.ID)
	}

	return &UpdateOutput{ID: e.ID, UpdatedAt: e.UpdatedAt}, nil
}
