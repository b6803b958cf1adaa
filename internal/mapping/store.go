package mapping

import (
	"context"
	"errors"
	"strconv"
	"time"

	"leadsync_backend/platform/cache"
)

// Persistence is the storage the cached store reads through.
type Persistence interface {
	Get(ctx context.Context, formID int64) (Config, error)
	Put(ctx context.Context, formID int64, cfg Config) error
}

// CachedStore serves mappings from the shared cache and falls back to
// Default for forms without a stored mapping.
type CachedStore struct {
	repo   Persistence
	loader *cache.Loader
	ttl    time.Duration
}

// NewCachedStore wraps repo.
func NewCachedStore(repo Persistence, loader *cache.Loader, ttl time.Duration) *CachedStore {
	return &CachedStore{repo: repo, loader: loader, ttl: ttl}
}

// Get returns the form's mapping or Default.
func (s *CachedStore) Get(ctx context.Context, formID int64) (Config, error) {
	cfg, _, err := cache.GetOrRefresh(ctx, s.loader, cacheKey(formID), s.ttl, func(ctx context.Context) (Config, error) {
		cfg, err := s.repo.Get(ctx, formID)
		if errors.Is(err, ErrNotFound) {
			return Default(), nil
		}
		return cfg, err
	})
	return cfg, err
}

// Put replaces the mapping and drops the cached copy.
func (s *CachedStore) Put(ctx context.Context, formID int64, cfg Config) error {
	if err := s.repo.Put(ctx, formID, cfg); err != nil {
		return err
	}
	s.loader.Invalidate(ctx, cacheKey(formID))
	return nil
}

func cacheKey(formID int64) string {
	return "mapping:" + strconv.FormatInt(formID, 10)
}
