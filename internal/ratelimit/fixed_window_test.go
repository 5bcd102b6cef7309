package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T, limit int) (*FixedWindow, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := NewFixedWindow(client, "test:ratelimit", limit, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return limiter, srv
}

func TestFixedWindow(t *testing.T) {
	limiter, _ := newLimiter(t, 2)
	ctx := context.Background()

	if !limiter.Allow(ctx, "10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if !limiter.Allow(ctx, "10.0.0.1") {
		t.Fatal("second request should pass")
	}
	if limiter.Allow(ctx, "10.0.0.1") {
		t.Fatal("third request should be blocked")
	}
	if !limiter.Allow(ctx, "10.0.0.2") {
		t.Fatal("other clients keep their own quota")
	}
}

func TestFixedWindow_NextWindow(t *testing.T) {
	limiter, _ := newLimiter(t, 1)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	if !limiter.Allow(ctx, "ip") || limiter.Allow(ctx, "ip") {
		t.Fatal("expected one request per window")
	}

	limiter.now = func() time.Time { return base.Add(time.Minute) }
	if !limiter.Allow(ctx, "ip") {
		t.Fatal("new window should reset the count")
	}
}

func TestFixedWindow_FailClosed(t *testing.T) {
	limiter, srv := newLimiter(t, 5)
	srv.Close()

	if limiter.Allow(context.Background(), "ip") {
		t.Fatal("limiter should fail closed on redis errors")
	}
}

func TestFixedWindow_RetryAfter(t *testing.T) {
	limiter, _ := newLimiter(t, 1)
	limiter.now = func() time.Time { return time.UnixMilli(90_000) }

	if got := limiter.RetryAfter(); got != 30*time.Second {
		t.Errorf("expected 30s, got %s", got)
	}
}

func TestNewFixedWindow_Validation(t *testing.T) {
	if _, err := NewFixedWindow(nil, "", 1, time.Second); err == nil {
		t.Error("expected error without client")
	}

	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tests := []struct {
		name   string
		limit  int
		window time.Duration
	}{
		{"zero limit", 0, time.Second},
		{"zero window", 1, 0},
		{"negative window", 1, -time.Second},
		{"sub-millisecond window", 1, 500 * time.Microsecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFixedWindow(client, "", tt.limit, tt.window); err == nil {
				t.Errorf("expected error for limit=%d window=%s", tt.limit, tt.window)
			}
		})
	}

	limiter, err := NewFixedWindow(client, "", 1, time.Millisecond)
	if err != nil {
		t.Fatalf("expected 1ms window to be accepted: %v", err)
	}
	if !limiter.Allow(context.Background(), "10.0.0.1") {
		t.Error("expected first request in a 1ms window to be allowed")
	}
	if _, err := NewRedisClient(" ", ""); err == nil {
		t.Error("expected error for empty addr")
	}
}
