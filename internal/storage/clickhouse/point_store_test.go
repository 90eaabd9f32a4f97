package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/storage"
)

func TestPointStore_InsertBulk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Test empty insert
	assert.NoError(t, store.InsertBulk(ctx, "s1", nil))

	points := []domain.Point{
		{TimestampMs: 2000, Features: domain.Features{"value": 2.5, "up": true}},
		{TimestampMs: 1000, Features: domain.Features{"value": int64(1), "label": "open"}},
	}
	require.NoError(t, store.InsertBulk(ctx, "s1", points))

	got, err := store.GetBySeries(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].TimestampMs)
	assert.Equal(t, int64(1), got[0].Features["value"])
	assert.Equal(t, "open", got[0].Features["label"])
	assert.Equal(t, 2.5, got[1].Features["value"])
	assert.Equal(t, true, got[1].Features["up"])
}

func TestPointStore_InsertBulk_DuplicateKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	points := []domain.Point{{TimestampMs: 1000, Features: domain.Features{"value": 1.0}}}
	require.NoError(t, store.InsertBulk(ctx, "s1", points))

	err := store.InsertBulk(ctx, "s1", points)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Intra-batch duplicate
	err = store.InsertBulk(ctx, "s2", []domain.Point{{TimestampMs: 5}, {TimestampMs: 5}})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetBySeries(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPointStore_GetByTimeRangeAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		require.NoError(t, store.InsertBulk(ctx, id, []domain.Point{
			{TimestampMs: 1000}, {TimestampMs: 2000}, {TimestampMs: 3000},
		}))
	}

	got, err := store.GetByTimeRange(ctx, "a", 1500, 3000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2000), got[0].TimestampMs)
	assert.Equal(t, int64(3000), got[1].TimestampMs)

	ids, err := store.ListSeries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}
