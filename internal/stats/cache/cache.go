// Package cache provides a Redis-backed read-through cache for stats
// snapshots. A miss or a Redis failure is never an error; callers fall
// through to a fresh computation.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"homeward/internal/platform/redis"
	"homeward/internal/stats"
)

const statsKey = "homeward:stats"

// RedisCache caches the latest stats snapshot with a short TTL bounding
// staleness.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context) (*stats.Stats, bool) {
	payload, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var snapshot stats.Stats
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		c.logger.WarnContext(ctx, "discarding malformed cached stats", "error", err)
		return nil, false
	}
	return &snapshot, true
}

func (c *RedisCache) Set(ctx context.Context, snapshot *stats.Stats) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsKey, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache stats", "error", err)
	}
}
