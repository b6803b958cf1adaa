// Package cache provides the shared key/value cache used for CRM lookups and
// form mappings. A zero TTL means the entry never expires on its own.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache with per-entry TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time
