// Package cache defines the versioned, named key-value store of captured
// network responses used by the interception agent. Cache names embed the
// deploy generation; dropping every name a generation does not own is the
// sole eviction mechanism.
package cache

import (
	"context"
	"strings"

	"github.com/community-notify/internal/domain"
)

// Store is a collection of named caches.
type Store interface {
	// Open returns the named cache, creating it if needed.
	Open(ctx context.Context, name string) (Cache, error)
	// Names enumerates every cache currently held by the store.
	Names(ctx context.Context) ([]string, error)
	// Drop deletes the named cache and all its entries.
	Drop(ctx context.Context, name string) error
}

// Cache is one named cache of responses keyed by request URL. Concurrent
// writes to the same key are last-write-wins; this is a best-effort
// cache, not a consistency-critical store.
type Cache interface {
	// Match returns the entry for key, or domain.ErrNotFound.
	Match(ctx context.Context, key string) (*domain.CacheEntry, error)
	Put(ctx context.Context, e *domain.CacheEntry) error
	Delete(ctx context.Context, key string) error
}

// StaticName is the cache holding same-origin static assets for the
// given generation.
func StaticName(generation string) string { return "static-" + generation }

// PageName is the cache precached page documents land in. Document
// requests never read it; it exists so a generation owns every name it
// writes.
func PageName(generation string) string { return "pages-" + generation }

// OwnedBy reports whether name belongs to the given generation.
func OwnedBy(name, generation string) bool {
	return strings.HasSuffix(name, "-"+generation) &&
		(name == StaticName(generation) || name == PageName(generation))
}
