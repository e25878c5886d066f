package domain

import "time"

// CacheEntry is one captured network response, keyed by request URL
// inside a named cache. Entries are replaced wholesale on refresh and
// purged en masse when the cache generation changes.
type CacheEntry struct {
	Key         string    `json:"key"`
	Body        []byte    `json:"body"`
	ContentType string    `json:"content_type"`
	Status      int       `json:"status"`
	CachedAt    time.Time `json:"cached_at"`
}
