package ops

import (
	"context"
	"database/sql"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
)

// TagsInput contains parameters for the Tags operation.
type TagsInput struct {
	Campaign     string
	AllCampaigns bool
}

// TagsOutput contains the result of the Tags operation.
type TagsOutput struct {
	Tags []db.TagCount `json:"tags"`
}

// Tags lists the distinct tags of a campaign with how many events carry each.
func Tags(ctx context.Context, database *sql.DB, input TagsInput) (*TagsOutput, error) {
	campaign := campaignNorm(input.Campaign)
	if input.AllCampaigns {
		campaign = ""
	}

	counts, err := db.TagCounts(ctx, database, campaign)
	if err != nil {
		return nil, contextError(ctx, err)
	}
	return &TagsOutput{Tags: counts}, nil
}
