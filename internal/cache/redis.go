package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// likeCountTTL bounds how long a liked-you counter survives without traffic.
const likeCountTTL = time.Hour

// RedisCache wraps the redis client used for per-profile liked-you counters.
// The database remains the source of truth; the cache only absorbs reads.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes a Redis client. Only addr is mandatory.
func NewRedisCache(addr, password string) *RedisCache {
	opts := &redis.Options{Addr: addr}
	if password != "" {
		opts.Password = password
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// KeyForLikeCount generates the Redis key for a profile's liked-you count.
func (c *RedisCache) KeyForLikeCount(profileID uint) string {
	return fmt.Sprintf("likes:count:%d", profileID)
}

// GetLikeCount returns the cached count and whether the key was present.
// Refreshes the TTL on a hit.
func (c *RedisCache) GetLikeCount(ctx context.Context, profileID uint) (int64, bool, error) {
	key := c.KeyForLikeCount(profileID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	_ = c.Client.Expire(ctx, key, likeCountTTL).Err()
	return n, true, nil
}

// SetLikeCount stores the count with a fresh TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, profileID uint, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(profileID), count, likeCountTTL).Err()
}

// IncrLikeCount bumps the counter after a recorded like and refreshes the TTL.
func (c *RedisCache) IncrLikeCount(ctx context.Context, profileID uint) {
	key := c.KeyForLikeCount(profileID)
	_, _ = c.Client.Incr(ctx, key).Result()
	_ = c.Client.Expire(ctx, key, likeCountTTL).Err()
}

// DecrLikeCount lowers the counter after an unlike and refreshes the TTL.
func (c *RedisCache) DecrLikeCount(ctx context.Context, profileID uint) {
	key := c.KeyForLikeCount(profileID)
	_, _ = c.Client.Decr(ctx, key).Result()
	_ = c.Client.Expire(ctx, key, likeCountTTL).Err()
}
