package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "taskhub:ratelimit:"

// Redis shares one fixed window per key across every replica. The counter
// key expires with the window, so no cleanup is needed.
type Redis struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
}

func NewRedis(rdb redis.Cmdable, limit int, window time.Duration) *Redis {
	return &Redis{rdb: rdb, limit: limit, window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	k := keyPrefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		// NX keeps the first request's expiry for the whole window
		pipe.ExpireNX(ctx, k, r.window)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := int(incr.Val())
	if count <= r.limit {
		return Decision{Allowed: true, Remaining: r.limit - count}, nil
	}

	retryAfter := ttl.Val()
	if retryAfter < 0 {
		retryAfter = r.window
	}

	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}
