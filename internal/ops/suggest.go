package ops

import (
	"context"
	"database/sql"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

// SuggestInput contains parameters for the Suggest operation.
type SuggestInput struct {
	Partial  string
	Campaign string
	Limit    int // default: 8
}

// SuggestOutput contains the result of the Suggest operation.
type SuggestOutput struct {
	Suggestions []string `json:"suggestions"`
}

// Suggest completes a partial word from the words of a campaign's events.
func Suggest(ctx context.Context, database *sql.DB, ix *search.Index, input SuggestInput) (*SuggestOutput, error) {
	if ix == nil {
		ix = search.NewIndex()
	}

	events, err := db.AllByCampaign(ctx, database, campaignNorm(input.Campaign))
	if err != nil {
		return nil, contextError(ctx, err)
	}

	return &SuggestOutput{
		Suggestions: ix.Suggestions(events, input.Partial, input.Limit),
	}, nil
}
