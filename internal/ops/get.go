package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID string
}

// GetOutput contains the result of the Get operation.
type GetOutput struct {
	event.Event // embedded (copy, not pointer)
}

// Get retrieves an event by id.
func Get(ctx context.Context, database *sql.DB, input GetInput) (*GetOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	e, err := db.GetByID(ctx, database, id)
	if err != nil {
		return nil, err
	}

	return &GetOutput{Event: *e}, nil
}
