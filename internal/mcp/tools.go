package mcp

import "github.com/mark3labs/mcp-go/mcp"

var campaignOpt = mcp.WithString("campaign",
	mcp.Description("Campaign name (case-insensitive). Defaults to \"default\"."),
)

var addToolDef = mcp.NewTool("event_add",
	mcp.WithDescription("Add an event to a campaign timeline. Dates are YYYY-MM-DD or DD.MM.YYYY, times HH:MM."),
	campaignOpt,
	mcp.WithString("name", mcp.Required(), mcp.Description("Event title")),
	mcp.WithString("description", mcp.Description("Free text, may contain Markdown")),
	mcp.WithString("location", mcp.Description("Where the event happens")),
	mcp.WithArray("tags", mcp.Description("Tags such as kampf or handel"), mcp.WithStringItems()),
	mcp.WithString("entry_date", mcp.Required(), mcp.Description("In-game start date")),
	mcp.WithString("entry_time", mcp.Description("In-game start time")),
	mcp.WithBoolean("has_end_date_time", mcp.Description("Whether end_date/end_time are set")),
	mcp.WithString("end_date", mcp.Description("In-game end date")),
	mcp.WithString("end_time", mcp.Description("In-game end time")),
)

var getToolDef = mcp.NewTool("event_get",
	mcp.WithDescription("Get one event by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Event id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var updateToolDef = mcp.NewTool("event_update",
	mcp.WithDescription("Update fields of an event. Omitted fields keep their value."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Event id")),
	campaignOpt,
	mcp.WithString("name"),
	mcp.WithString("description"),
	mcp.WithString("location"),
	mcp.WithArray("tags", mcp.Description("Replaces all tags"), mcp.WithStringItems()),
	mcp.WithString("entry_date"),
	mcp.WithString("entry_time"),
	mcp.WithBoolean("has_end_date_time"),
	mcp.WithString("end_date"),
	mcp.WithString("end_time"),
)

var deleteToolDef = mcp.NewTool("event_delete",
	mcp.WithDescription("Permanently delete an event."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Event id")),
	mcp.WithDestructiveHintAnnotation(true),
)

var listToolDef = mcp.NewTool("event_list",
	mcp.WithDescription("List a campaign's events in timeline order. Undated events come last."),
	campaignOpt,
	mcp.WithNumber("limit", mcp.Description("Page size (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var searchToolDef = mcp.NewTool("event_search",
	mcp.WithDescription("Fuzzy search over event name, description, location and tags. "+
		"Tolerates typos, umlaut spellings (ae/oe/ue/ss) and common German abbreviations. "+
		"Text inside double quotes is not abbreviation-expanded."),
	mcp.WithString("query", mcp.Description("Search text. Empty lists events by date.")),
	mcp.WithArray("tags", mcp.Description("Only events carrying every tag (substring match)"), mcp.WithStringItems()),
	campaignOpt,
	mcp.WithBoolean("all_campaigns", mcp.Description("Search every campaign")),
	mcp.WithNumber("min_score", mcp.Description("Drop results scoring below this (0..1)")),
	mcp.WithNumber("max_results", mcp.Description("Cap on ranked results before paging")),
	mcp.WithString("sort_by", mcp.Enum("relevance", "date", "name", "status")),
	mcp.WithBoolean("include_scoring", mcp.Description("Include per-match scoring details")),
	mcp.WithBoolean("boost_recent", mcp.Description("Favor events within 30 days of now")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 200)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var suggestToolDef = mcp.NewTool("event_suggest",
	mcp.WithDescription("Complete a partial word from the words used in a campaign's events."),
	mcp.WithString("partial", mcp.Required(), mcp.Description("At least two characters")),
	campaignOpt,
	mcp.WithNumber("limit", mcp.Description("Maximum suggestions (default 8)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var tagsToolDef = mcp.NewTool("event_tags",
	mcp.WithDescription("List distinct tags with the number of events carrying each."),
	campaignOpt,
	mcp.WithBoolean("all_campaigns", mcp.Description("Count tags across every campaign")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var importToolDef = mcp.NewTool("event_import",
	mcp.WithDescription("Import events from a .json or .jsonl file in an allowed directory."),
	mcp.WithString("path", mcp.Required(), mcp.Description("File path")),
	mcp.WithString("mode", mcp.Enum("error", "replace", "skip"),
		mcp.Description("What to do when an id already exists (default error, all-or-nothing)")),
	campaignOpt,
)

var exportToolDef = mcp.NewTool("event_export",
	mcp.WithDescription("Export events as JSON lines that event_import reads back."),
	mcp.WithString("path", mcp.Description("Target .jsonl file. Defaults to ~/.timeline/exports/<campaign>-<time>.jsonl")),
	campaignOpt,
	mcp.WithBoolean("all_campaigns", mcp.Description("Export every campaign")),
)
