// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/matching"
)

// RedisResultCache stores match responses as JSON strings with a TTL.
type RedisResultCache struct {
	client redis.Cmdable
}

func NewRedisResultCache(client redis.Cmdable) *RedisResultCache {
	return &RedisResultCache{client: client}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (*matching.MatchResponse, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewCacheFailedError(err)
	}

	var resp matching.MatchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.NewCacheFailedError(fmt.Errorf("decode %s: %w", key, err))
	}
	return &resp, nil
}

func (c *RedisResultCache) Set(ctx context.Context, key string, resp *matching.MatchResponse, ttl time.Duration) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return apperrors.NewCacheFailedError(fmt.Errorf("encode %s: %w", key, err))
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return apperrors.NewCacheFailedError(err)
	}
	return nil
}

// Invalidate drops every cached response for one profile, whatever event or overrides it was keyed with.
func (c *RedisResultCache) Invalidate(ctx context.Context, kind, id string) (int, error) {
	pattern := fmt.Sprintf("matches:%s:%s:*", kind, id)

	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, apperrors.NewCacheFailedError(err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, apperrors.NewCacheFailedError(err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
