package icons

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheKey is the Redis key holding the last fetched icon list.
const cacheKey = "icons:last_snapshot"

// Cache mirrors the last fetched icon list to Redis so a freshly started
// gateway can validate before its first upstream fetch, and so an upstream
// outage that outlives the process still leaves a usable list behind.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// cachedList is the JSON shape stored under cacheKey.
type cachedList struct {
	Codes     []string  `json:"codes"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewCache creates a Redis-backed snapshot mirror with the given TTL.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Store writes the icon list to Redis. Failures are returned so the caller
// can log them, but a Store failure never fails a validation.
func (c *Cache) Store(ctx context.Context, codes []string, fetchedAt time.Time) error {
	data, err := json.Marshal(cachedList{Codes: codes, FetchedAt: fetchedAt})
	if err != nil {
		return fmt.Errorf("icons: marshal cached list: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("icons: cache store: %w", err)
	}
	return nil
}

// Load reads the last stored icon list. Returns (nil, zero, nil) when no
// entry exists.
func (c *Cache) Load(ctx context.Context) ([]string, time.Time, error) {
	data, err := c.rdb.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("icons: cache load: %w", err)
	}

	var entry cachedList
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, time.Time{}, fmt.Errorf("icons: unmarshal cached list: %w", err)
	}
	return entry.Codes, entry.FetchedAt, nil
}
