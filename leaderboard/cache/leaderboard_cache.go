// leaderboard/cache/leaderboard_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/playhive/leaderboard-service/shared/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key layout: leaderboard:global:<limit>
	globalKeyPrefix = "leaderboard:global:"
	keyPattern      = "leaderboard:*"
)

// LeaderboardCache keeps serialized global leaderboard pages in Redis for a
// short TTL so hot ranking reads skip Mongo. The cache is strictly an
// accelerator: every method is safe on a nil receiver, which is how the
// service runs when no Redis address is configured.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a cache over the given client. A nil client
// yields a nil cache, i.e. caching disabled.
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if client == nil {
		return nil
	}
	return &LeaderboardCache{
		client: client,
		ttl:    ttl,
	}
}

func globalKey(limit int) string {
	return fmt.Sprintf("%s%d", globalKeyPrefix, limit)
}

// GetGlobal returns the cached global page for a limit, if fresh.
func (lc *LeaderboardCache) GetGlobal(ctx context.Context, limit int) ([]*models.LeaderboardRow, bool) {
	if lc == nil {
		return nil, false
	}
	payload, err := lc.client.Get(ctx, globalKey(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("WARN: Leaderboard cache read failed: %v", err)
		}
		return nil, false
	}
	var rows []*models.LeaderboardRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		log.Printf("WARN: Discarding undecodable leaderboard cache entry: %v", err)
		return nil, false
	}
	return rows, true
}

// SetGlobal stores a freshly computed global page. Failures are logged and
// swallowed: a cold cache is never worth failing a request over.
func (lc *LeaderboardCache) SetGlobal(ctx context.Context, limit int, rows []*models.LeaderboardRow) {
	if lc == nil {
		return
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		log.Printf("WARN: Failed to encode leaderboard page for cache: %v", err)
		return
	}
	if err := lc.client.Set(ctx, globalKey(limit), payload, lc.ttl).Err(); err != nil {
		log.Printf("WARN: Leaderboard cache write failed: %v", err)
	}
}

// Invalidate drops every cached leaderboard page. Called after each run
// ingestion so stale rankings never outlive the TTL plus one write.
func (lc *LeaderboardCache) Invalidate(ctx context.Context) {
	if lc == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := lc.client.Scan(ctx, cursor, keyPattern, 100).Result()
		if err != nil {
			log.Printf("WARN: Leaderboard cache invalidation scan failed: %v", err)
			return
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				log.Printf("WARN: Leaderboard cache invalidation delete failed: %v", err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
