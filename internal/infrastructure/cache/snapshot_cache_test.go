package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketbid/auction-marketplace-backend/internal/testutil/fixtures"
)

func newTestCache(t *testing.T) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSnapshotCache(client, 5*time.Second, zap.NewNop()), mr
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	a := fixtures.NewAuctionBuilder().WithCurrentBid(250, uuid.New()).Build()
	require.NoError(t, c.Set(ctx, a))

	got, err := c.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.Status, got.Status)
	require.NotNil(t, got.CurrentBid)
	assert.True(t, a.CurrentBid.Equal(*got.CurrentBid))
}

func TestSnapshotCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.Get(context.Background(), uuid.New())

	require.NoError(t, err, "a miss is not an error")
	assert.Nil(t, got)
}

func TestSnapshotCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	a := fixtures.NewAuctionBuilder().Build()
	require.NoError(t, c.Set(ctx, a))

	mr.FastForward(6 * time.Second)

	got, err := c.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "expired snapshots read as misses")
}

func TestSnapshotCacheDropsCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	id := uuid.New()
	key := "auction:snapshot:" + id.String()
	require.NoError(t, mr.Set(key, "{not valid json"))

	got, err := c.Get(ctx, id)

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists(key), "corrupt entry must be evicted")
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	a := fixtures.NewAuctionBuilder().Build()
	require.NoError(t, c.Set(ctx, a))
	require.NoError(t, c.Invalidate(ctx, a.ID))

	assert.False(t, mr.Exists("auction:snapshot:"+a.ID.String()))
}
