package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadsync_backend/platform/logger"

	"golang.org/x/sync/singleflight"
)

// Loader fills a Store from fetch functions. Concurrent refreshes of the same
// key share one fetch; a refresh always overwrites the previous value.
// Empty results (null, [] or {}) are returned but never stored, and an empty
// entry already in the store counts as a miss.
type Loader struct {
	store Store
	group singleflight.Group
	log   *logger.Logger
}

// NewLoader creates a Loader over store.
func NewLoader(store Store, log *logger.Logger) *Loader {
	return &Loader{store: store, log: log}
}

// Invalidate drops key so the next read fetches again.
func (l *Loader) Invalidate(ctx context.Context, key string) {
	if err := l.store.Delete(ctx, key); err != nil {
		l.log.Warn("cache: delete failed", "key", key, "error", err)
	}
}

// GetOrRefresh returns the cached value for key, fetching and storing it on a
// miss. The boolean reports whether the value came from the cache, which lets
// callers decide whether a lookup miss warrants a forced Refresh.
func GetOrRefresh[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, bool, error) {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.log.Warn("cache: read failed", "key", key, "error", err)
	}
	if ok && !isEmptyJSON(raw) {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, true, nil
		}
		l.log.Warn("cache: dropping undecodable entry", "key", key)
	}
	value, err := Refresh(ctx, l, key, ttl, fetch)
	return value, false, err
}

// Refresh fetches unconditionally and overwrites key.
func Refresh[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	result, err, _ := l.group.Do(key, func() (interface{}, error) {
		value, err := fetch(ctx)
		if err != nil {
			return value, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return value, fmt.Errorf("encode cache entry %s: %w", key, err)
		}
		if isEmptyJSON(encoded) {
			l.log.Debug("cache: empty result not stored", "key", key)
			l.Invalidate(ctx, key)
			return value, nil
		}
		if err := l.store.Set(ctx, key, encoded, ttl); err != nil {
			l.log.Warn("cache: write failed", "key", key, "error", err)
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	value, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache key %s shared between types", key)
	}
	return value, nil
}

func isEmptyJSON(raw []byte) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}
