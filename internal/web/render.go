package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"html"
	"log/slog"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
)

// renderError writes the JSON error envelope with the error's HTTP status.
// Internal errors are logged and reported without their message.
func renderError(w http.ResponseWriter, err error) {
	var tErr *errors.TimelineError
	if !stderrors.As(err, &tErr) {
		tErr = errors.NewInternal(err)
	}

	errorObj := map[string]any{
		"code":    string(tErr.Code),
		"message": tErr.Message,
		"status":  tErr.Status,
	}
	if tErr.Code == errors.ErrInternal {
		slog.Error("request failed", "error", err)
		errorObj["message"] = "an internal error occurred"
	} else if tErr.Details != nil {
		errorObj["details"] = tErr.Details
	}

	renderJSON(w, tErr.Status, map[string]any{"error": errorObj})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

// renderMarkdown converts a markdown description to HTML using goldmark.
// Raw HTML in the source is omitted.
func renderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return html.EscapeString(md)
	}
	return buf.String()
}
