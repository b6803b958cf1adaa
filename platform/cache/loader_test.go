package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadsync_backend/platform/logger"
)

type user struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

func TestGetOrRefreshFetchesOnceThenServesCache(t *testing.T) {
	store, _ := NewMemoryStore(8, nil)
	loader := NewLoader(store, logger.Discard())
	ctx := context.Background()
	calls := 0
	fetch := func(context.Context) ([]user, error) {
		calls++
		return []user{{ID: 7, Email: "agent@acme.test"}}, nil
	}

	first, cached, err := GetOrRefresh(ctx, loader, "users", time.Hour, fetch)
	if err != nil || cached {
		t.Fatalf("expected fresh fetch, cached=%v err=%v", cached, err)
	}
	second, cached, err := GetOrRefresh(ctx, loader, "users", time.Hour, fetch)
	if err != nil || !cached {
		t.Fatalf("expected cached read, cached=%v err=%v", cached, err)
	}
	if calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
	if first[0] != second[0] {
		t.Fatalf("cached value differs: %+v vs %+v", first, second)
	}
}

func TestRefreshOverwritesAndFetchErrorsAreNotCached(t *testing.T) {
	store, _ := NewMemoryStore(8, nil)
	loader := NewLoader(store, logger.Discard())
	ctx := context.Background()

	_, err := Refresh(ctx, loader, "stagesets", 0, func(context.Context) ([]string, error) {
		return nil, errors.New("crm down")
	})
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if _, ok, _ := store.Get(ctx, "stagesets"); ok {
		t.Fatal("failed fetch must not populate the cache")
	}

	_, _ = Refresh(ctx, loader, "stagesets", 0, func(context.Context) ([]string, error) { return []string{"a"}, nil })
	got, _ := Refresh(ctx, loader, "stagesets", 0, func(context.Context) ([]string, error) { return []string{"a", "b"}, nil })
	if len(got) != 2 {
		t.Fatalf("expected overwrite, got %v", got)
	}

	loader.Invalidate(ctx, "stagesets")
	if _, ok, _ := store.Get(ctx, "stagesets"); ok {
		t.Fatal("expected invalidated key to be gone")
	}
}

func TestEmptyResultsAreNeverServedFromCache(t *testing.T) {
	store, _ := NewMemoryStore(8, nil)
	loader := NewLoader(store, logger.Discard())
	ctx := context.Background()
	calls := 0
	fetch := func(context.Context) ([]user, error) {
		calls++
		if calls == 1 {
			return []user{}, nil
		}
		return []user{{ID: 3, Email: "rep@acme.test"}}, nil
	}

	if got, cached, _ := GetOrRefresh(ctx, loader, "users", 0, fetch); len(got) != 0 || cached {
		t.Fatalf("expected fresh empty list, got %v cached=%v", got, cached)
	}
	if _, ok, _ := store.Get(ctx, "users"); ok {
		t.Fatal("empty list must not be stored")
	}
	got, cached, _ := GetOrRefresh(ctx, loader, "users", 0, fetch)
	if cached || len(got) != 1 || calls != 2 {
		t.Fatalf("expected refetch after empty result, got %v cached=%v calls=%d", got, cached, calls)
	}

	_ = store.Set(ctx, "stale", []byte("[]"), 0)
	fetched := false
	_, cached, _ = GetOrRefresh(ctx, loader, "stale", 0, func(context.Context) ([]string, error) {
		fetched = true
		return []string{"1-stagesets"}, nil
	})
	if cached || !fetched {
		t.Fatal("expected a stored empty entry to count as a miss")
	}
}
