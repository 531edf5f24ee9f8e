package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_OrderAndPagination(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	for _, date := range []string{"1247-03-01", "1247-01-01", "1247-02-01"} {
		mustAdd(t, database, AddInput{Campaign: "Strahd", Name: "Ereignis " + date, EntryDate: date})
	}
	mustAdd(t, database, AddInput{Campaign: "Andere", Name: "Fremd", EntryDate: "1000-01-01"})

	out, err := List(ctx, database, ListInput{Campaign: "strahd", Limit: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "1247-01-01", out.Items[0].EntryDate)
	assert.Equal(t, "1247-02-01", out.Items[1].EntryDate)
	assert.Equal(t, Pagination{Limit: 2, Offset: 0, HasMore: true, Total: 3}, out.Pagination)
	assert.Equal(t, "date", out.Sort)

	out, err = List(ctx, database, ListInput{Campaign: "STRAHD", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.False(t, out.Pagination.HasMore)
}

func TestList_Defaults(t *testing.T) {
	database := openTestDB(t)

	out, err := List(context.Background(), database, ListInput{Limit: -1, Offset: -4})
	require.NoError(t, err)
	assert.NotNil(t, out.Items)
	assert.Empty(t, out.Items)
	assert.Equal(t, DefaultListLimit, out.Pagination.Limit)
	assert.Equal(t, 0, out.Pagination.Offset)
}
