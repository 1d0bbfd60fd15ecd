package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), "redis://"+mr.Addr(), "eventhub:")
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisRoundTripWithPrefix(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	if err := r.Set(ctx, "marketplace:providers", []string{"a", "b"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("eventhub:marketplace:providers") {
		t.Fatal("expected prefixed key in redis")
	}
	if ttl := mr.TTL("eventhub:marketplace:providers"); ttl != time.Minute {
		t.Fatalf("expected one minute ttl, got %v", ttl)
	}

	var got []string
	if err := r.Get(ctx, "marketplace:providers", &got); err != nil || len(got) != 2 || got[1] != "b" {
		t.Fatalf("expected hit, got %v err=%v", got, err)
	}
}

func TestRedisMissAndExpiry(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	var v int
	if err := r.Get(ctx, "absent", &v); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}

	_ = r.Set(ctx, "short", 7, time.Second)
	mr.FastForward(2 * time.Second)
	if err := r.Get(ctx, "short", &v); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}

func TestRedisDelete(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	_ = r.Set(ctx, "a", 1, 0)
	_ = r.Set(ctx, "b", 2, 0)
	if err := r.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("eventhub:a") || mr.Exists("eventhub:b") {
		t.Fatal("expected keys removed")
	}
	if err := r.Delete(ctx); err != nil {
		t.Fatalf("Delete without keys: %v", err)
	}
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	if _, err := NewRedis(context.Background(), "redis://127.0.0.1:1", ""); err == nil {
		t.Fatal("expected ping error")
	}
	if _, err := NewRedis(context.Background(), "://bad", ""); err == nil {
		t.Fatal("expected parse error")
	}
}
