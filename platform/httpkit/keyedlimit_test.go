package httpkit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"leadgate_backend/platform/logger"
)

func newLimiter(t *testing.T, perMinute int) *RequesterRateLimiter {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRequesterRateLimiter(client, perMinute, logger.New("test"))
}

func TestRequesterRateLimiterAllowsUnderLimit(t *testing.T) {
	limiter := newLimiter(t, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "requester-a")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d blocked below the limit", i+1)
		}
	}
}

func TestRequesterRateLimiterBlocksOverLimit(t *testing.T) {
	limiter := newLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.Allow(ctx, "requester-b"); !allowed {
			t.Fatalf("request %d blocked below the limit", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "requester-b")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Error("request above the limit was allowed")
	}
}

func TestRequesterRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := newLimiter(t, 1)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "requester-c"); !allowed {
		t.Fatal("first request for requester-c blocked")
	}
	if allowed, _ := limiter.Allow(ctx, "requester-d"); !allowed {
		t.Error("requester-d blocked by requester-c's usage")
	}
}

func TestRequesterRateLimiterDisabledWithoutRedis(t *testing.T) {
	limiter := NewRequesterRateLimiter(nil, 1, logger.New("test"))

	for i := 0; i < 10; i++ {
		allowed, err := limiter.Allow(context.Background(), "requester-e")
		if err != nil || !allowed {
			t.Fatalf("nil-client limiter must allow everything, got allowed=%v err=%v", allowed, err)
		}
	}
}
