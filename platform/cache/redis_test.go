package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisStoreHonoursTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "leadsync:")
	ctx := context.Background()

	if err := store.Set(ctx, "users", []byte(`[1]`), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("leadsync:users") {
		t.Fatal("expected prefixed key in redis")
	}

	mr.FastForward(59 * time.Minute)
	if _, ok, err := store.Get(ctx, "users"); err != nil || !ok {
		t.Fatalf("expected hit before ttl, ok=%v err=%v", ok, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, err := store.Get(ctx, "users"); err != nil || ok {
		t.Fatalf("expected miss after ttl, ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("v"), 0)
	_ = store.Delete(ctx, "k")

	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected key removed")
	}
}
