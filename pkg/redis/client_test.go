package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "login:1.2.3.4", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "login:1.2.3.4", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "login:1.2.3.4", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestSetNXClaimsOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	key := client.IdempotencyKey("order-events", "evt-1")
	if key != "sm:processed:order-events:evt-1" {
		t.Fatalf("unexpected idempotency key %s", key)
	}

	claimed, err := client.SetNX(ctx, key, "1", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !claimed {
		t.Fatalf("expected first claim to succeed")
	}

	claimed, err = client.SetNX(ctx, key, "1", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimed {
		t.Fatalf("expected second claim to fail")
	}
}

func TestRateLimitKey(t *testing.T) {
	client := &Client{}
	if got := client.RateLimitKey("login:1.2.3.4"); got != "sm:rate_limit:login:1.2.3.4" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
}

type mockCmdable struct {
	incr        map[string]int64
	setnx       map[string]string
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{incr: make(map[string]int64), setnx: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	delete(m.incr, keys[0])
	delete(m.setnx, keys[0])
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.setnx[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.setnx[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}
