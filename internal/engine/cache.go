package engine

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// pageCache holds recently fetched watch-page HTML in memory so that opening
// the same video again does not refetch it. Nothing is written to disk.
var pageCache *memCache

// Cache hit/miss counters.
var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type memCache struct {
	entries         sync.Map // key → *cacheEntry
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stop            chan struct{}
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// InitCache sets up the page cache. Call after Init(). A non-positive ttl disables caching.
func InitCache(ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	if pageCache != nil {
		close(pageCache.stop)
		pageCache = nil
	}
	if ttl <= 0 {
		slog.Info("cache: disabled")
		return
	}
	c := &memCache{ttl: ttl, maxEntries: maxEntries, cleanupInterval: cleanupInterval, stop: make(chan struct{})}
	pageCache = c
	slog.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Int("max_entries", maxEntries))

	go c.cleanupLoop()
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("yt:%x", hash[:12]) // 24-char hex prefix
}

// CacheGet returns a cached value that has not expired.
func CacheGet(key string) ([]byte, bool) {
	if pageCache == nil {
		cacheMisses.Add(1)
		return nil, false
	}
	if val, ok := pageCache.entries.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			cacheHits.Add(1)
			return entry.data, true
		}
		pageCache.entries.Delete(key)
	}
	cacheMisses.Add(1)
	return nil, false
}

// CacheSet stores a value for the configured TTL.
func CacheSet(key string, data []byte) {
	if pageCache == nil {
		return
	}
	pageCache.evictIfNeeded()
	pageCache.entries.Store(key, &cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(pageCache.ttl),
	})
}

// CacheStats returns current cache hit/miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// evictIfNeeded removes entries when the cache reaches maxEntries.
// Removes expired entries first, then the entries closest to expiry.
func (c *memCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}

	count := 0
	c.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}

	now := time.Now()
	c.entries.Range(func(key, val any) bool {
		if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.entries.Delete(key)
			count--
		}
		return count >= c.maxEntries
	})

	for count >= c.maxEntries {
		var oldestKey any
		oldestAt := now.Add(c.ttl + time.Hour)
		c.entries.Range(func(key, val any) bool {
			if entry, ok := val.(*cacheEntry); ok && entry.expiresAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			break
		}
		c.entries.Delete(oldestKey)
		count--
	}
}

// cleanupLoop periodically removes expired entries.
func (c *memCache) cleanupLoop() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.entries.Range(func(key, val any) bool {
				if entry, ok := val.(*cacheEntry); ok && now.After(entry.expiresAt) {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}
