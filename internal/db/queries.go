package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// Querier is satisfied by *sql.DB and *sql.Tx so writes can join a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const eventColumns = `
	id, campaign_raw, campaign_norm, name, description, location, tags_json,
	entry_date, entry_time, end_date, end_time, has_end, created_at, updated_at`

// dateOrder sorts dated events by start, undated last, then by creation.
const dateOrder = `
	ORDER BY (entry_date = '') ASC, entry_date ASC, entry_time ASC, created_at ASC, id ASC`

// TagCount is a tag with the number of events carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Insert stores a new event. A duplicate id returns ALREADY_EXISTS.
func Insert(ctx context.Context, q Querier, e *event.Event) error {
	tagsJSON, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		e.ID, e.Campaign, e.CampaignNorm, e.Name, e.Description, e.Location, tagsJSON,
		e.EntryDate, e.EntryTime, e.EndDate, e.EndTime, e.HasEndDateTime, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewAlreadyExists(e.ID)
		}
		return errors.NewInternal(err)
	}

	return nil
}

// Upsert inserts an event or overwrites every column of an existing one with
// the same id. Used by import in replace mode.
func Upsert(ctx context.Context, q Querier, e *event.Event) error {
	tagsJSON, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			campaign_raw = excluded.campaign_raw, campaign_norm = excluded.campaign_norm,
			name = excluded.name, description = excluded.description, location = excluded.location,
			tags_json = excluded.tags_json, entry_date = excluded.entry_date, entry_time = excluded.entry_time,
			end_date = excluded.end_date, end_time = excluded.end_time, has_end = excluded.has_end,
			created_at = excluded.created_at, updated_at = excluded.updated_at
	`

	_, err = q.ExecContext(ctx, query,
		e.ID, e.Campaign, e.CampaignNorm, e.Name, e.Description, e.Location, tagsJSON,
		e.EntryDate, e.EntryTime, e.EndDate, e.EndTime, e.HasEndDateTime, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite reports both UNIQUE and PRIMARY KEY violations this way
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves an event by id.
func GetByID(ctx context.Context, q Querier, id string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	e, err := scanEvent(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// Exists reports whether an event with the given id is stored.
func Exists(ctx context.Context, q Querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// Update overwrites the mutable fields of an existing event and sets
// updated_at to the current time.
// Does NOT change: id, created_at
func Update(ctx context.Context, q Querier, e *event.Event) error {
	tagsJSON, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}

	now := time.Now().Unix()

	query := `
		UPDATE events
		SET campaign_raw = ?, campaign_norm = ?, name = ?, description = ?, location = ?,
			tags_json = ?, entry_date = ?, entry_time = ?, end_date = ?, end_time = ?,
			has_end = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := q.ExecContext(ctx, query,
		e.Campaign, e.CampaignNorm, e.Name, e.Description, e.Location,
		tagsJSON, e.EntryDate, e.EntryTime, e.EndDate, e.EndTime,
		e.HasEndDateTime, now,
		e.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(e.ID)
	}

	e.UpdatedAt = now
	return nil
}

// Delete removes an event permanently.
func Delete(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// ListByCampaign returns one page of a campaign's events ordered by date,
// undated last, plus the campaign's total event count.
func ListByCampaign(ctx context.Context, q Querier, campaignNorm string, limit, offset int) ([]*event.Event, int, error) {
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE campaign_norm = ?`, campaignNorm).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE campaign_norm = ?` + dateOrder + ` LIMIT ? OFFSET ?`
	events, err := queryEvents(ctx, q, query, campaignNorm, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// AllByCampaign returns every event of a campaign in creation order, the
// collection order search tie-breaks on. An empty campaign returns all events.
func AllByCampaign(ctx context.Context, q Querier, campaignNorm string) ([]*event.Event, error) {
	if campaignNorm == "" {
		return queryEvents(ctx, q, `SELECT `+eventColumns+` FROM events ORDER BY created_at ASC, id ASC`)
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE campaign_norm = ? ORDER BY created_at ASC, id ASC`
	return queryEvents(ctx, q, query, campaignNorm)
}

// TagCounts returns each distinct tag of a campaign with its event count,
// ordered by tag. An empty campaign counts across all campaigns.
func TagCounts(ctx context.Context, q Querier, campaignNorm string) ([]TagCount, error) {
	query := `
		SELECT j.value, COUNT(*)
		FROM events, json_each(events.tags_json) AS j
		WHERE events.tags_json IS NOT NULL AND (? = '' OR events.campaign_norm = ?)
		GROUP BY j.value
		ORDER BY j.value ASC
	`
	rows, err := q.QueryContext(ctx, query, campaignNorm, campaignNorm)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	counts := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, errors.NewInternal(err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return counts, nil
}

func queryEvents(ctx context.Context, q Querier, query string, args ...any) ([]*event.Event, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled(ctx.Err())
		}
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	events := []*event.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled(ctx.Err())
		}
		return nil, errors.NewInternal(err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into an Event.
func scanEvent(row scanner) (*event.Event, error) {
	var (
		e        event.Event
		tagsJSON sql.NullString
	)

	err := row.Scan(
		&e.ID, &e.Campaign, &e.CampaignNorm, &e.Name, &e.Description, &e.Location, &tagsJSON,
		&e.EntryDate, &e.EntryTime, &e.EndDate, &e.EndTime, &e.HasEndDateTime, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Tags = []string{}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &e.Tags); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

// encodeTags stores tags as a JSON array; no tags is NULL.
func encodeTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, errors.NewInternal(err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
