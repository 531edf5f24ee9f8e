package mcp

import (
	"database/sql"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

// toolEntry pairs a tool definition with the handler serving it.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// tools lists every tool in registration order. Names come from the definitions.
var tools = []toolEntry{
	{addToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd }},
	{getToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet }},
	{updateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate }},
	{deleteToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete }},
	{listToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleList }},
	{searchToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch }},
	{suggestToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSuggest }},
	{tagsToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleTags }},
	{importToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport }},
	{exportToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport }},
}

// AllToolNames returns the tool names in registration order.
func AllToolNames() []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.def.Name
	}
	return names
}

// ValidateDisabledTools returns the names that match no tool.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if !slices.Contains(AllToolNames(), name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the timeline tools registered.
// Tools listed in cfg.DisabledTools are excluded; unknown names are logged.
func NewServer(db *sql.DB, cfg *config.Config, ix *search.Index, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"timeline",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, ix)

	if unknown := ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		slog.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	for _, t := range tools {
		if slices.Contains(cfg.DisabledTools, t.def.Name) {
			continue
		}
		s.AddTool(t.def, t.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, ix *search.Index, version string) error {
	s := NewServer(db, cfg, ix, version)
	return server.ServeStdio(s)
}
