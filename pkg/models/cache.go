package models

import "time"

// CacheEntry holds one cached backend payload.
type CacheEntry struct {
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
