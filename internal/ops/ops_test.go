package ops

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/db"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/errors"
	"github.com/itsmarble/Pen-and-Paper-Timeline/internal/search"
)

func stringPtr(s string) *string {
	return &s
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// fixedIndex returns an index whose clock reads now.
func fixedIndex(now time.Time) *search.Index {
	return search.NewIndex(search.WithNow(func() time.Time { return now }))
}

// mustAdd stores an event and returns its id.
func mustAdd(t *testing.T, database *sql.DB, input AddInput) string {
	t.Helper()
	out, err := Add(context.Background(), database, input)
	require.NoError(t, err)
	return out.ID
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit, want int
	}{
		{0, 20},
		{-5, 20},
		{7, 7},
		{200, 200},
		{5000, 200},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, clampLimit(tc.limit, DefaultSearchLimit, MaxSearchLimit), "limit %d", tc.limit)
	}
}

func TestCampaignNorm(t *testing.T) {
	assert.Equal(t, "default", campaignNorm(""))
	assert.Equal(t, "default", campaignNorm("   "))
	assert.Equal(t, "curse of strahd", campaignNorm("  Curse   of STRAHD "))
}

func TestContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, errors.Is(contextError(ctx, errors.NewInternal(context.Canceled)), errors.ErrCancelled))
	assert.True(t, errors.Is(contextError(context.Background(), context.DeadlineExceeded), errors.ErrCancelled))

	// Non-internal errors pass through even after cancellation
	notFound := errors.NewNotFound("x")
	assert.Same(t, notFound, contextError(ctx, notFound))
	assert.NoError(t, contextError(ctx, nil))
}

func TestGenerateULID(t *testing.T) {
	a, err := generateULID()
	require.NoError(t, err)
	b, err := generateULID()
	require.NoError(t, err)

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
