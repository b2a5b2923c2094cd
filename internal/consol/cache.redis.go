package consol

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryCacheKey = "consol:summary:latest"

// RedisSummaryCache caches the latest run summary in Redis. A nil client
// degrades to a permanent miss, keeping the run store authoritative.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSummaryCache instantiates the cache helper.
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

// GetSummary loads the cached summary, reporting whether it was present.
func (c *RedisSummaryCache) GetSummary(ctx context.Context) (Summary, bool, error) {
	var zero Summary
	if c == nil || c.client == nil {
		return zero, false, nil
	}
	payload, err := c.client.Get(ctx, summaryCacheKey).Bytes()
	if err == redis.Nil {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var summary Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return zero, false, err
	}
	return summary, true, nil
}

// SetSummary stores the summary under the configured TTL.
func (c *RedisSummaryCache) SetSummary(ctx context.Context, summary Summary) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryCacheKey, payload, c.ttl).Err()
}

// Invalidate drops the cached summary.
func (c *RedisSummaryCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, summaryCacheKey).Err()
}
