package web

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/ops"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

// Handlers contains HTTP route handlers for the JSON API.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	ix      *search.Index
	version string
}

// DetailResponse is an event plus its description rendered as HTML.
type DetailResponse struct {
	event.Event
	Status          event.Status `json:"status"`
	DescriptionHTML string       `json:"description_html"`
}

// HandleHealth handles GET /api/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{"ok": true, "version": h.version})
}

// HandleList handles GET /api/events: a campaign's events in timeline order.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(r.Context(), h.db, ops.ListInput{
		Campaign: r.URL.Query().Get("campaign"),
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSearch handles GET /api/events/search: fuzzy search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input := ops.SearchInput{
		Query:          q.Get("q"),
		Tags:           parseTags(r),
		Campaign:       q.Get("campaign"),
		AllCampaigns:   parseBoolParam(r, "all_campaigns"),
		MaxResults:     parseIntParam(r, "max_results", 0),
		SortBy:         q.Get("sort_by"),
		IncludeScoring: parseBoolParam(r, "include_scoring"),
		BoostRecent:    parseBoolParam(r, "boost_recent"),
		Limit:          parseIntParam(r, "limit", ops.DefaultSearchLimit),
		Offset:         parseIntParam(r, "offset", 0),
	}
	if s := q.Get("min_score"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			renderError(w, errors.NewInvalidRequest("min_score must be a number"))
			return
		}
		input.MinScore = &v
	}

	result, err := ops.Search(r.Context(), h.db, h.ix, h.cfg, input)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleSuggest handles GET /api/events/suggest: word completion.
func (h *Handlers) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Suggest(r.Context(), h.db, h.ix, ops.SuggestInput{
		Partial:  r.URL.Query().Get("q"),
		Campaign: r.URL.Query().Get("campaign"),
		Limit:    parseIntParam(r, "limit", 0),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleDetail handles GET /api/events/{id}: a single event.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		renderError(w, errors.NewInvalidRequest("event id is required"))
		return
	}

	result, err := ops.Get(r.Context(), h.db, ops.GetInput{ID: id})
	if err != nil {
		renderError(w, err)
		return
	}

	renderJSON(w, http.StatusOK, DetailResponse{
		Event:           result.Event,
		Status:          result.Event.StatusAt(h.ix.Now()),
		DescriptionHTML: renderMarkdown(result.Description),
	})
}

// HandleDelete handles DELETE /api/events/{id}: permanently delete an event.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		renderError(w, errors.NewInvalidRequest("event id is required"))
		return
	}

	result, err := ops.Delete(r.Context(), h.db, h.ix, ops.DeleteInput{ID: id})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleTags handles GET /api/tags: tags with usage counts.
func (h *Handlers) HandleTags(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Tags(r.Context(), h.db, ops.TagsInput{
		Campaign:     r.URL.Query().Get("campaign"),
		AllCampaigns: parseBoolParam(r, "all_campaigns"),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// parseTags accepts both ?tag=a&tag=b and ?tags=a,b.
func parseTags(r *http.Request) []string {
	q := r.URL.Query()
	tags := append([]string(nil), q["tag"]...)
	for _, list := range q["tags"] {
		tags = append(tags, strings.Split(list, ",")...)
	}
	return event.CleanTags(tags)
}
