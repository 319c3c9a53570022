package dedup

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "relay:dedup:"

// RedisStore shares fingerprints between relay workers. SET NX with a TTL
// equal to the window makes check-and-insert a single atomic command, and
// Redis expiry takes the place of the lazy purge.
type RedisStore struct {
	client *goredis.Client
	window time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *goredis.Client, window time.Duration) *RedisStore {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisStore{client: client, window: window}
}

// Client returns the underlying Redis client for health checks.
func (r *RedisStore) Client() *goredis.Client { return r.client }

func (r *RedisStore) CheckAndInsert(ctx context.Context, fp string, now time.Time) (bool, error) {
	set, err := r.client.SetNX(ctx, redisKeyPrefix+fp, now.UnixMilli(), r.window).Result()
	if err != nil {
		return false, fmt.Errorf("dedup: redis setnx: %w", err)
	}
	return !set, nil
}
