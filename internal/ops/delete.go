package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete permanently removes an event and its cached search text.
func Delete(ctx context.Context, database *sql.DB, ix *search.Index, input DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if err := db.Delete(ctx, database, id); err != nil {
		return nil, contextError(ctx, err)
	}
	if ix != nil {
		ix.Invalidate(id)
	}

	return &DeleteOutput{Deleted: true, ID: id}, nil
}
