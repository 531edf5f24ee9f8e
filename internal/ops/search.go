package ops

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query        string
	Tags         []string // every tag must match
	Campaign     string   // defaults to "default"
	AllCampaigns bool     // search every campaign, ignoring Campaign

	MinScore       *float64 // nil uses config
	MaxResults     int      // 0 uses config
	SortBy         string   // "" uses config
	IncludeScoring bool
	BoostRecent    bool

	Limit  int // default: 20, max: 200
	Offset int // default: 0
}

// SearchResultItem is one ranked event.
type SearchResultItem struct {
	Event   *event.Event   `json:"event"`
	Score   float64        `json:"score"`
	Status  event.Status   `json:"status"`
	Matches []search.Match `json:"matches,omitempty"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
}

// statusRank orders statuses for sort_by=status: what is happening now first.
var statusRank = map[event.Status]int{
	event.StatusActive:   0,
	event.StatusUpcoming: 1,
	event.StatusPast:     2,
	event.StatusUndated:  3,
}

// Search ranks a campaign's events against a query and tag filter.
// Options not set in input fall back to the search section of cfg.
func Search(ctx context.Context, database *sql.DB, ix *search.Index, cfg *config.Config, input SearchInput) (*SearchOutput, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if ix == nil {
		ix = search.NewIndex()
	}

	campaign := campaignNorm(input.Campaign)
	if input.AllCampaigns {
		campaign = ""
	}

	events, err := db.AllByCampaign(ctx, database, campaign)
	if err != nil {
		return nil, contextError(ctx, err)
	}

	opts := search.Options{
		MinScore:       cfg.Search.MinScore,
		MaxResults:     cfg.Search.MaxResults,
		SortBy:         search.ParseSortBy(cfg.Search.SortBy),
		IncludeScoring: input.IncludeScoring,
		BoostRecent:    input.BoostRecent,
	}
	if input.MinScore != nil {
		opts.MinScore = *input.MinScore
	}
	if input.MaxResults > 0 {
		opts.MaxResults = input.MaxResults
	}
	if input.SortBy != "" {
		opts.SortBy = search.ParseSortBy(input.SortBy)
	}

	results, err := ix.Search(ctx, events, input.Query, input.Tags, opts)
	if err != nil {
		return nil, contextError(ctx, err)
	}

	now := ix.Now()
	if opts.SortBy == search.SortStatus {
		sortByStatus(results, now)
	}

	limit := clampLimit(input.Limit, DefaultSearchLimit, MaxSearchLimit)
	offset := max(input.Offset, 0)
	total := len(results)

	page := results[min(offset, total):min(offset+limit, total)]
	items := make([]SearchResultItem, len(page))
	for i, r := range page {
		items[i] = SearchResultItem{
			Event:   r.Event,
			Score:   r.Score,
			Status:  r.Event.StatusAt(now),
			Matches: r.Matches,
		}
	}

	return &SearchOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: string(opts.SortBy),
	}, nil
}

// sortByStatus groups results by status, keeping relevance order within a group.
func sortByStatus(results []search.ScoredResult, now time.Time) {
	ranks := make(map[*event.Event]int, len(results))
	for _, r := range results {
		ranks[r.Event] = statusRank[r.Event.StatusAt(now)]
	}
	slices.SortStableFunc(results, func(a, b search.ScoredResult) int {
		return ranks[a.Event] - ranks[b.Event]
	})
}
