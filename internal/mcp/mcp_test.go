package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	cleanup := func() {
		database.Close()
	}

	return database, cfg, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// addEvent stores an event through the handler and returns its id.
func addEvent(t *testing.T, h *Handlers, args map[string]any) string {
	t.Helper()
	result, err := h.HandleAdd(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return parseOutput(t, result)["id"].(string)
}

func seedEvents(t *testing.T, h *Handlers) (market, goblin string) {
	t.Helper()
	market = addEvent(t, h, map[string]any{
		"campaign":    "Strahd",
		"name":        "Markttag in Vallaki",
		"description": "Die Gruppe kauft Vorräte und hört Gerüchte.",
		"location":    "Vallaki",
		"tags":        []any{"handel"},
		"entry_date":  "1247-03-01",
	})
	goblin = addEvent(t, h, map[string]any{
		"campaign":    "Strahd",
		"name":        "Goblin-Überfall",
		"description": "Ein Hinterhalt an der Straße nach Bergheim.",
		"location":    "Svalich-Wald",
		"tags":        []any{"kampf"},
		"entry_date":  "10.03.1247",
		"entry_time":  "18:30",
	})
	return market, goblin
}

func TestHandleAdd(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "valid event",
			args: map[string]any{
				"campaign":   "Strahd",
				"name":       "Ankunft",
				"entry_date": "1247-03-01",
			},
		},
		{
			name: "german date",
			args: map[string]any{
				"name":       "Ankunft",
				"entry_date": "01.03.1247",
				"tags":       []any{"reise", " reise "},
			},
		},
		{
			name:      "missing name",
			args:      map[string]any{"entry_date": "1247-03-01"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "end before start",
			args: map[string]any{
				"name":              "Rückwärts",
				"entry_date":        "1247-03-02",
				"has_end_date_time": true,
				"end_date":          "1247-03-01",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "wrong argument type",
			args:      map[string]any{"name": 42, "entry_date": "1247-03-01"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleAdd(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandleGet(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()
	market, _ := seedEvents(t, h)

	result, _ := h.HandleGet(ctx, makeRequest(map[string]any{"id": market}))
	output := parseOutput(t, result)
	if output["name"] != "Markttag in Vallaki" {
		t.Errorf("name = %v, want Markttag in Vallaki", output["name"])
	}
	if output["campaign_norm"] != "strahd" {
		t.Errorf("campaign_norm = %v, want strahd", output["campaign_norm"])
	}

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{"id": "missing"}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleUpdate(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()
	market, _ := seedEvents(t, h)

	result, _ := h.HandleUpdate(ctx, makeRequest(map[string]any{
		"id":   market,
		"name": "Jahrmarkt in Vallaki",
		"tags": []any{"handel", "fest"},
	}))
	parseOutput(t, result)

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{"id": market}))
	output := parseOutput(t, result)
	if output["name"] != "Jahrmarkt in Vallaki" {
		t.Errorf("name = %v, want Jahrmarkt in Vallaki", output["name"])
	}
	if output["location"] != "Vallaki" {
		t.Errorf("location = %v, want unchanged Vallaki", output["location"])
	}
	if tags := output["tags"].([]any); len(tags) != 2 {
		t.Errorf("tags = %v, want 2 tags", tags)
	}

	result, _ = h.HandleUpdate(ctx, makeRequest(map[string]any{"id": market}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleUpdate(ctx, makeRequest(map[string]any{"id": "missing", "name": "x"}))
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleDelete(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()
	market, _ := seedEvents(t, h)

	result, _ := h.HandleDelete(ctx, makeRequest(map[string]any{"id": market}))
	output := parseOutput(t, result)
	if output["deleted"] != true {
		t.Errorf("deleted = %v, want true", output["deleted"])
	}

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{"id": market}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleDelete(ctx, makeRequest(map[string]any{"id": market}))
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleList(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()
	market, goblin := seedEvents(t, h)

	result, _ := h.HandleList(ctx, makeRequest(map[string]any{"campaign": "strahd"}))
	output := parseOutput(t, result)
	items := output["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if id := items[0].(map[string]any)["id"]; id != market {
		t.Errorf("first item = %v, want %v (earliest date)", id, market)
	}
	if id := items[1].(map[string]any)["id"]; id != goblin {
		t.Errorf("second item = %v, want %v", id, goblin)
	}

	result, _ = h.HandleList(ctx, makeRequest(map[string]any{"campaign": "Strahd", "limit": 1}))
	output = parseOutput(t, result)
	pagination := output["pagination"].(map[string]any)
	if pagination["has_more"] != true {
		t.Errorf("has_more = %v, want true", pagination["has_more"])
	}
	if pagination["total"] != float64(2) {
		t.Errorf("total = %v, want 2", pagination["total"])
	}

	// Other campaigns are not visible
	result, _ = h.HandleList(ctx, makeRequest(map[string]any{}))
	output = parseOutput(t, result)
	if items := output["items"].([]any); len(items) != 0 {
		t.Errorf("default campaign items = %d, want 0", len(items))
	}
}

func TestHandleSearch(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()
	market, goblin := seedEvents(t, h)

	tests := []struct {
		name    string
		args    map[string]any
		firstID string
	}{
		{"exact word", map[string]any{"campaign": "Strahd", "query": "goblin"}, goblin},
		{"umlaut spelling", map[string]any{"campaign": "Strahd", "query": "ueberfall"}, goblin},
		{"typo", map[string]any{"campaign": "Strahd", "query": "Vallaky"}, market},
		{"tag filter", map[string]any{"campaign": "Strahd", "tags": []any{"handel"}}, market},
		{"all campaigns", map[string]any{"all_campaigns": true, "query": "hinterhalt"}, goblin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleSearch(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			output := parseOutput(t, result)
			items := output["items"].([]any)
			if len(items) == 0 {
				t.Fatal("expected results, got none")
			}
			first := items[0].(map[string]any)
			if id := first["event"].(map[string]any)["id"]; id != tt.firstID {
				t.Errorf("first result = %v, want %v", id, tt.firstID)
			}
			if _, ok := first["matches"]; ok {
				t.Error("matches should be omitted without include_scoring")
			}
		})
	}
}

func TestHandleSearch_IncludeScoring(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	seedEvents(t, h)

	result, _ := h.HandleSearch(context.Background(), makeRequest(map[string]any{
		"campaign":        "Strahd",
		"query":           "goblin",
		"include_scoring": true,
	}))
	output := parseOutput(t, result)
	first := output["items"].([]any)[0].(map[string]any)
	if matches, ok := first["matches"].([]any); !ok || len(matches) == 0 {
		t.Errorf("expected matches with include_scoring, got %v", first["matches"])
	}
}

func TestHandleSearch_BadArguments(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	result, _ := h.HandleSearch(context.Background(), makeRequest(map[string]any{"limit": "ten"}))
	assertErrorCode(t, result, "INVALID_REQUEST")
	if msg, _ := errorObject(t, result)["message"].(string); !strings.Contains(msg, `"limit"`) {
		t.Errorf("error message %q does not name the argument", msg)
	}
}

func TestHandleSearch_CancelledContextReturnsCancelled(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	seedEvents(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.HandleSearch(ctx, makeRequest(map[string]any{"campaign": "Strahd", "query": "goblin"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "CANCELLED")
}

func TestHandleSuggestAndTags(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()
	seedEvents(t, h)

	result, _ := h.HandleSuggest(ctx, makeRequest(map[string]any{"campaign": "Strahd", "partial": "Val"}))
	output := parseOutput(t, result)
	suggestions := output["suggestions"].([]any)
	if len(suggestions) != 1 || suggestions[0] != "vallaki" {
		t.Errorf("suggestions = %v, want [vallaki]", suggestions)
	}

	result, _ = h.HandleTags(ctx, makeRequest(map[string]any{"campaign": "Strahd"}))
	output = parseOutput(t, result)
	if tags := output["tags"].([]any); len(tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", tags)
	}
}

func TestHandleExportImport(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(database, cfg, nil)
	ctx := context.Background()
	market, goblin := seedEvents(t, h)

	exportPath := filepath.Join(t.TempDir(), "strahd.jsonl")
	result, _ := h.HandleExport(ctx, makeRequest(map[string]any{"path": exportPath, "campaign": "Strahd"}))
	output := parseOutput(t, result)
	if output["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", output["count"])
	}

	// mode:error refuses existing ids
	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": exportPath}))
	output = parseOutput(t, result)
	if output["imported"] != float64(0) {
		t.Errorf("imported = %v, want 0", output["imported"])
	}

	for _, id := range []string{market, goblin} {
		result, _ = h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))
		parseOutput(t, result)
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": exportPath}))
	output = parseOutput(t, result)
	if output["imported"] != float64(2) {
		t.Errorf("imported = %v, want 2", output["imported"])
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": exportPath, "mode": "skip"}))
	output = parseOutput(t, result)
	if output["skipped"] != float64(2) {
		t.Errorf("skipped = %v, want 2", output["skipped"])
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": exportPath, "mode": "merge"}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": filepath.Join(t.TempDir(), "nope.jsonl")}))
	assertErrorCode(t, result, "FILE_NOT_FOUND")
}

func TestServerRegistration(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	s := NewServer(database, cfg, nil, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"event_add",
		"event_get",
		"event_update",
		"event_delete",
		"event_list",
		"event_search",
		"event_suggest",
		"event_tags",
		"event_import",
		"event_export",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"event_delete", "event_import", "event_import", "no_such_tool"}
	s := NewServer(database, cfg, nil, "test")
	tools := s.ListTools()

	if len(tools) != 8 {
		t.Errorf("registered tool count = %d, want 8", len(tools))
	}
	for _, name := range []string{"event_delete", "event_import"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
	if _, ok := tools["event_search"]; !ok {
		t.Error("event_search should be registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = AllToolNames()
	s := NewServer(database, cfg, nil, "test")
	tools := s.ListTools()

	if len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"event_delete", "event_import"}, 0},
		{"one unknown", []string{"event_delete", "note_store"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 10 {
		t.Errorf("AllToolNames() returned %d names, want 10", len(names))
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
	if strings.Contains(errObj["message"].(string), "secret.db") {
		t.Fatalf("INTERNAL message leaked: %v", errObj["message"])
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrapped := fmt.Errorf("line 3: %w", errors.NewAlreadyExists("01J0"))

	errObj := errorObject(t, errorResult(wrapped))
	if errObj["code"] != string(errors.ErrAlreadyExists) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrAlreadyExists)
	}
	if msg := errObj["message"].(string); !strings.Contains(msg, "line 3") {
		t.Errorf("message should contain wrapper context 'line 3', got: %s", msg)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewNotFound("abc")))
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if errObj["status"] != float64(404) {
		t.Errorf("status=%v, want 404", errObj["status"])
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want INTERNAL", errObj["code"])
	}
}

// Helper functions

func errorObject(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error result, got success: %s", extractErrorMessage(result))
		return
	}
	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
