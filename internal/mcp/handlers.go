package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/ops"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
	ix  *search.Index
}

// NewHandlers creates a new Handlers instance. A nil index gets a fresh one.
func NewHandlers(db *sql.DB, cfg *config.Config, ix *search.Index) *Handlers {
	if ix == nil {
		ix = search.NewIndex()
	}
	return &Handlers{db: db, cfg: cfg, ix: ix}
}

// Request types for each tool

// AddRequest represents the arguments for event_add.
type AddRequest struct {
	Campaign       string   `json:"campaign,omitempty"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Location       string   `json:"location,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	EntryDate      string   `json:"entry_date"`
	EntryTime      string   `json:"entry_time,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	EndTime        string   `json:"end_time,omitempty"`
	HasEndDateTime bool     `json:"has_end_date_time,omitempty"`
}

// IDRequest represents the arguments for event_get and event_delete.
type IDRequest struct {
	ID string `json:"id"`
}

// UpdateRequest represents the arguments for event_update.
type UpdateRequest struct {
	ID             string    `json:"id"`
	Campaign       *string   `json:"campaign,omitempty"`
	Name           *string   `json:"name,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Location       *string   `json:"location,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`
	EntryDate      *string   `json:"entry_date,omitempty"`
	EntryTime      *string   `json:"entry_time,omitempty"`
	EndDate        *string   `json:"end_date,omitempty"`
	EndTime        *string   `json:"end_time,omitempty"`
	HasEndDateTime *bool     `json:"has_end_date_time,omitempty"`
}

// ListRequest represents the arguments for event_list.
type ListRequest struct {
	Campaign string `json:"campaign,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// SearchRequest represents the arguments for event_search.
type SearchRequest struct {
	Query          string   `json:"query,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Campaign       string   `json:"campaign,omitempty"`
	AllCampaigns   bool     `json:"all_campaigns,omitempty"`
	MinScore       *float64 `json:"min_score,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	SortBy         string   `json:"sort_by,omitempty"`
	IncludeScoring bool     `json:"include_scoring,omitempty"`
	BoostRecent    bool     `json:"boost_recent,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	Offset         int      `json:"offset,omitempty"`
}

// SuggestRequest represents the arguments for event_suggest.
type SuggestRequest struct {
	Partial  string `json:"partial"`
	Campaign string `json:"campaign,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// TagsRequest represents the arguments for event_tags.
type TagsRequest struct {
	Campaign     string `json:"campaign,omitempty"`
	AllCampaigns bool   `json:"all_campaigns,omitempty"`
}

// ImportRequest represents the arguments for event_import.
type ImportRequest struct {
	Path     string `json:"path"`
	Mode     string `json:"mode,omitempty"`
	Campaign string `json:"campaign,omitempty"`
}

// ExportRequest represents the arguments for event_export.
type ExportRequest struct {
	Path         string `json:"path,omitempty"`
	Campaign     string `json:"campaign,omitempty"`
	AllCampaigns bool   `json:"all_campaigns,omitempty"`
}

// Handler implementations

// HandleAdd handles the event_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Add(ctx, h.db, ops.AddInput{
		Campaign:       input.Campaign,
		Name:           input.Name,
		Description:    input.Description,
		Location:       input.Location,
		Tags:           input.Tags,
		EntryDate:      input.EntryDate,
		EntryTime:      input.EntryTime,
		EndDate:        input.EndDate,
		EndTime:        input.EndTime,
		HasEndDateTime: input.HasEndDateTime,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the event_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Get(ctx, h.db, ops.GetInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the event_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.db, h.ix, ops.UpdateInput{
		ID:             input.ID,
		Campaign:       input.Campaign,
		Name:           input.Name,
		Description:    input.Description,
		Location:       input.Location,
		Tags:           input.Tags,
		EntryDate:      input.EntryDate,
		EntryTime:      input.EntryTime,
		EndDate:        input.EndDate,
		EndTime:        input.EndTime,
		HasEndDateTime: input.HasEndDateTime,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the event_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, h.ix, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the event_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Campaign: input.Campaign,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the event_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Search(ctx, h.db, h.ix, h.cfg, ops.SearchInput{
		Query:          input.Query,
		Tags:           input.Tags,
		Campaign:       input.Campaign,
		AllCampaigns:   input.AllCampaigns,
		MinScore:       input.MinScore,
		MaxResults:     input.MaxResults,
		SortBy:         input.SortBy,
		IncludeScoring: input.IncludeScoring,
		BoostRecent:    input.BoostRecent,
		Limit:          input.Limit,
		Offset:         input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSuggest handles the event_suggest tool call.
func (h *Handlers) HandleSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SuggestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Suggest(ctx, h.db, h.ix, ops.SuggestInput{
		Partial:  input.Partial,
		Campaign: input.Campaign,
		Limit:    input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTags handles the event_tags tool call.
func (h *Handlers) HandleTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Tags(ctx, h.db, ops.TagsInput{
		Campaign:     input.Campaign,
		AllCampaigns: input.AllCampaigns,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the event_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.ix, h.cfg, ops.ImportInput{
		Path:     input.Path,
		Mode:     ops.ImportMode(input.Mode),
		Campaign: input.Campaign,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the event_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:         input.Path,
		Campaign:     input.Campaign,
		AllCampaigns: input.AllCampaigns,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var tErr *errors.TimelineError
	if stderrors.As(err, &tErr) {
		msg := tErr.Message
		// Keep wrapper context such as "line 3: ..."
		if err != error(tErr) {
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    tErr.Code,
			"message": msg,
			"status":  tErr.Status,
		}
		if tErr.Code != errors.ErrInternal && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		if tErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
