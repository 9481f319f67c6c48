package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRedis_FixedWindow(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	l := NewRedis(rdb, 2, time.Minute)
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, keyPrefix+key) })

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, key)
		if err != nil {
			t.Fatalf("Allow error: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d should pass", i+1)
		}
	}

	d, err := l.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if d.Allowed {
		t.Fatalf("third request should be rejected")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("RetryAfter out of range: %v", d.RetryAfter)
	}
}
