package ops

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/config"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

// MaxImportBytes bounds the size of an import file.
const MaxImportBytes = 64 << 20

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep the stored event on collision
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path     string     // required
	Mode     ImportMode // default: error
	Campaign string     // campaign for records that carry none
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// importRecord is a decoded record with its position in the file.
type importRecord struct {
	line  int
	event *event.Event
}

// Import loads events from a JSON array, an object with an "events" array, or
// JSON lines (optionally starting with an export header). All writes happen in
// one transaction.
func Import(ctx context.Context, database *sql.DB, ix *search.Index, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) || errors.Is(err, errors.ErrFileNotFound) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
	}
	if len(data) > MaxImportBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("import file exceeds %d bytes", MaxImportBytes))
	}

	records, parseErrors := parseImport(data, input.Campaign, time.Now())

	// mode:error is all-or-nothing, parse errors included
	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextError(ctx, errors.NewInternal(err))
	}
	defer tx.Rollback() //nolint:errcheck

	out := &ImportOutput{Errors: parseErrors, Skipped: len(parseErrors)}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled(err)
		}

		switch input.Mode {
		case ImportModeReplace:
			if err := db.Upsert(ctx, tx, rec.event); err != nil {
				return nil, contextError(ctx, err)
			}
			out.Imported++

		case ImportModeSkip:
			exists, err := db.Exists(ctx, tx, rec.event.ID)
			if err != nil {
				return nil, contextError(ctx, err)
			}
			if exists {
				out.Skipped++
				continue
			}
			if err := db.Insert(ctx, tx, rec.event); err != nil {
				return nil, contextError(ctx, err)
			}
			out.Imported++

		default:
			if err := db.Insert(ctx, tx, rec.event); err != nil {
				if errors.Is(err, errors.ErrAlreadyExists) {
					return &ImportOutput{Errors: []ImportError{{
						Line:    rec.line,
						ID:      rec.event.ID,
						Name:    rec.event.Name,
						Code:    "ID_COLLISION",
						Message: fmt.Sprintf("event with id %q already exists", rec.event.ID),
					}}}, nil
				}
				return nil, contextError(ctx, err)
			}
			out.Imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	if ix != nil && input.Mode == ImportModeReplace {
		for _, rec := range records {
			ix.Invalidate(rec.event.ID)
		}
	}

	if out.Errors == nil {
		out.Errors = []ImportError{}
	}
	return out, nil
}

// parseImport detects the file layout and decodes every record. Line is the
// 1-based line for JSON lines and the 1-based array position otherwise.
func parseImport(data []byte, campaign string, now time.Time) ([]importRecord, []ImportError) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, []ImportError{{Line: 1, Code: "PARSE_ERROR", Message: fmt.Sprintf("invalid JSON: %v", err)}}
		}
		return decodeItems(items, campaign, now)
	}

	var wrapper struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err == nil && wrapper.Events != nil {
		return decodeItems(wrapper.Events, campaign, now)
	}

	return decodeLines(data, campaign, now)
}

func decodeItems(items []json.RawMessage, campaign string, now time.Time) ([]importRecord, []ImportError) {
	var records []importRecord
	var errs []ImportError
	for i, raw := range items {
		rec, ierr := decodeRecord(raw, i+1, campaign, now)
		if ierr != nil {
			errs = append(errs, *ierr)
			continue
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, errs
}

func decodeLines(data []byte, campaign string, now time.Time) ([]importRecord, []ImportError) {
	var records []importRecord
	var errs []ImportError

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), MaxImportBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, ierr := decodeRecord(line, lineNum, campaign, now)
		if ierr != nil {
			errs = append(errs, *ierr)
			continue
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return records, errs
}

// decodeRecord returns nil, nil for export headers.
func decodeRecord(raw []byte, line int, campaign string, now time.Time) (*importRecord, *ImportError) {
	var header ExportHeader
	if err := json.Unmarshal(raw, &header); err == nil && header.TimelineExport {
		return nil, nil
	}

	var r event.Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, &ImportError{Line: line, Code: "PARSE_ERROR", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if r.Campaign == "" {
		r.Campaign = campaign
	}

	e := event.FromRecord(&r, now)
	if e.ID == "" {
		id, err := generateULID()
		if err != nil {
			return nil, &ImportError{Line: line, Name: e.Name, Code: "INVALID_RECORD", Message: err.Error()}
		}
		e.ID = id
	}
	return &importRecord{line: line, event: e}, nil
}
