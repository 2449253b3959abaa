package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marketbid/auction-marketplace-backend/internal/domain/auction"
)

const snapshotKeyPrefix = "auction:snapshot:"

// SnapshotCache stores short-lived auction snapshots in Redis. Snapshots are
// advisory: the bid path always revalidates against the database, so a stale
// entry costs at most one wasted round trip, never a wrong acceptance. The
// short TTL bounds how long a countdown view can lag the store.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache creates a snapshot cache with the given TTL
func NewSnapshotCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &SnapshotCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached auction or (nil, nil) on a miss
func (c *SnapshotCache) Get(ctx context.Context, id uuid.UUID) (*auction.Auction, error) {
	data, err := c.client.Get(ctx, snapshotKeyPrefix+id.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot get failed: %w", err)
	}

	var a auction.Auction
	if err := json.Unmarshal(data, &a); err != nil {
		// Treat a corrupt entry as a miss; the next Set repairs it.
		c.logger.Warn("dropping corrupt auction snapshot",
			zap.String("auction_id", id.String()),
			zap.Error(err))
		c.client.Del(ctx, snapshotKeyPrefix+id.String())
		return nil, nil
	}
	return &a, nil
}

// Set stores an auction snapshot under the cache TTL
func (c *SnapshotCache) Set(ctx context.Context, a *auction.Auction) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("snapshot marshal failed: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKeyPrefix+a.ID.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("snapshot set failed: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot after a write to the auction row
func (c *SnapshotCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, snapshotKeyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("snapshot invalidate failed: %w", err)
	}
	return nil
}
