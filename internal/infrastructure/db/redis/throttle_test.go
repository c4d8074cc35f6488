package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestThrottle_AllowsUpToMax(t *testing.T) {
	_, client := newTestRedis(t)
	th := NewThrottle(client, map[string]Limit{"login": {Max: 3, Window: time.Minute}})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := th.Allow(ctx, "login:alice@example.com:10.0.0.1")
		if err != nil || !ok {
			t.Fatalf("attempt %d: expected allowed, got ok=%v err=%v", i, ok, err)
		}
	}

	ok, err := th.Allow(ctx, "login:alice@example.com:10.0.0.1")
	if err != nil || ok {
		t.Fatalf("expected fourth attempt to be denied, got ok=%v err=%v", ok, err)
	}

	ok, _ = th.Allow(ctx, "login:bob@example.com:10.0.0.1")
	if !ok {
		t.Fatalf("expected other key to be unaffected")
	}
}

func TestThrottle_WindowExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	th := NewThrottle(client, map[string]Limit{"code": {Max: 1, Window: time.Minute}})
	ctx := context.Background()

	_, _ = th.Allow(ctx, "code:u1")
	if ok, _ := th.Allow(ctx, "code:u1"); ok {
		t.Fatalf("expected second send to be denied")
	}

	if ttl := mr.TTL("throttle:code:u1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	mr.FastForward(time.Minute + time.Second)

	if ok, err := th.Allow(ctx, "code:u1"); err != nil || !ok {
		t.Fatalf("expected new window to allow, got ok=%v err=%v", ok, err)
	}
}

func TestThrottle_WindowDoesNotSlide(t *testing.T) {
	mr, client := newTestRedis(t)
	th := NewThrottle(client, map[string]Limit{"login": {Max: 5, Window: time.Minute}})
	ctx := context.Background()

	_, _ = th.Allow(ctx, "login:alice@example.com")
	mr.FastForward(20 * time.Second)
	_, _ = th.Allow(ctx, "login:alice@example.com")

	if ttl := mr.TTL("throttle:login:alice@example.com"); ttl != 40*time.Second {
		t.Fatalf("expected the first attempt to fix the window, got ttl %v", ttl)
	}
}

func TestThrottle_CounterWithoutExpiryIsRepaired(t *testing.T) {
	mr, client := newTestRedis(t)
	th := NewThrottle(client, map[string]Limit{"login": {Max: 3, Window: time.Minute}})

	// A counter left behind without a TTL must not lock the key forever.
	if err := mr.Set("throttle:login:alice@example.com", "7"); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	ok, err := th.Allow(context.Background(), "login:alice@example.com")
	if err != nil || ok {
		t.Fatalf("expected denial while over budget, got ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("throttle:login:alice@example.com"); ttl != time.Minute {
		t.Fatalf("expected expiry attached to the stale counter, got %v", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if ok, err := th.Allow(context.Background(), "login:alice@example.com"); err != nil || !ok {
		t.Fatalf("expected a fresh window, got ok=%v err=%v", ok, err)
	}
}

func TestThrottle_UnknownScopeAlwaysAllowed(t *testing.T) {
	mr, client := newTestRedis(t)
	th := NewThrottle(client, map[string]Limit{"login": {Max: 1, Window: time.Minute}})

	for i := 0; i < 5; i++ {
		if ok, err := th.Allow(context.Background(), "other:x"); err != nil || !ok {
			t.Fatalf("expected unlimited scope, got ok=%v err=%v", ok, err)
		}
	}
	if mr.Exists("throttle:other:x") {
		t.Fatalf("expected no counter for unlimited scope")
	}
}

func TestThrottle_Reset(t *testing.T) {
	_, client := newTestRedis(t)
	th := NewThrottle(client, map[string]Limit{"login": {Max: 1, Window: time.Minute}})
	ctx := context.Background()

	_, _ = th.Allow(ctx, "login:a:b")
	if err := th.Reset(ctx, "login:a:b"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if ok, _ := th.Allow(ctx, "login:a:b"); !ok {
		t.Fatalf("expected counter cleared")
	}
}

func TestThrottle_BackendDown(t *testing.T) {
	mr, client := newTestRedis(t)
	th := NewThrottle(client, map[string]Limit{"login": {Max: 1, Window: time.Minute}})
	mr.Close()

	if _, err := th.Allow(context.Background(), "login:a:b"); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}
