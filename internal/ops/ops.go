package ops

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/event"
)

// Pagination limits
const (
	DefaultListLimit   = 50
	MaxListLimit       = 500
	DefaultSearchLimit = 20
	MaxSearchLimit     = 200
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// clampLimit applies a default for non-positive limits and caps at max.
func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}

// campaignNorm normalizes a campaign filter, defaulting to "default".
func campaignNorm(campaign string) string {
	norm := event.NormalizeCampaign(campaign)
	if norm == "" {
		return event.DefaultCampaign
	}
	return norm
}

// contextError reports CANCELLED when err stems from ctx ending, and err
// unchanged otherwise.
func contextError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelled(err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, errors.ErrInternal) {
		return errors.NewCancelled(ctxErr)
	}
	return err
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
