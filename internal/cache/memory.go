package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/community-notify/internal/domain"
)

// MemoryStore is an in-process Store. It backs local development and the
// agent tests; production agents run on the S3-backed store.
type MemoryStore struct {
	mu     sync.RWMutex
	caches map[string]*memoryCache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{caches: make(map[string]*memoryCache)}
}

func (s *MemoryStore) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[name]
	if !ok {
		c = &memoryCache{entries: make(map[string]domain.CacheEntry)}
		s.caches[name] = c
	}
	return c, nil
}

func (s *MemoryStore) Names(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Drop(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caches, name)
	return nil
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

func (c *memoryCache) Match(_ context.Context, key string) (*domain.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, fmt.Errorf("cache entry %q: %w", key, domain.ErrNotFound)
	}
	return &e, nil
}

func (c *memoryCache) Put(_ context.Context, e *domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.Key] = *e
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
