package ops

import (
	"context"
	"database/sql"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Campaign string // defaults to "default"
	Limit    int    // default: 50, max: 500
	Offset   int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []*event.Event `json:"items"`
	Pagination Pagination     `json:"pagination"`
	Sort       string         `json:"sort"`
}

// List retrieves a campaign's events in timeline order with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	campaign := campaignNorm(input.Campaign)
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)
	offset := max(input.Offset, 0)

	events, total, err := db.ListByCampaign(ctx, database, campaign, limit, offset)
	if err != nil {
		return nil, contextError(ctx, err)
	}

	return &ListOutput{
		Items: events,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(events) < total,
			Total:   total,
		},
		Sort: "date",
	}, nil
}
