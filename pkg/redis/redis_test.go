package redis

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/market-radar/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if client.Redis() != nil {
		t.Error("Expected no underlying connection")
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on disabled client error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	yahoo := PerSecond("yahoo", 5)
	allowed, remaining, err := limiter.Allow(context.Background(), yahoo)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != yahoo.Limit {
		t.Errorf("Expected remaining = %d, got %d", yahoo.Limit, remaining)
	}

	if err := limiter.Wait(context.Background(), PerSecond("naver", 3)); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	cache := NewCache(client, "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	if err := cache.Set(ctx, "key", "value", TTLShort); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "AssetDetailKey",
			fn:       func() string { return AssetDetailKey("aapl", "3mo") },
			expected: "asset:detail:AAPL:3mo",
		},
		{
			name:     "rateLimitKey",
			fn:       func() string { return NewRateLimiter(&Client{}, "radar").key(PerSecond("yahoo", 5)) },
			expected: "radar:ratelimit:yahoo",
		},
		{
			name:     "fullKey",
			fn:       func() string { return NewCache(&Client{}, "radar").fullKey("x") },
			expected: "radar:cache:x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPerSecond(t *testing.T) {
	got := PerSecond("naver", 3)
	want := RateLimitConfig{Key: "naver", Limit: 3, Window: time.Second}
	if got != want {
		t.Errorf("PerSecond() = %+v, want %+v", got, want)
	}
}
