package expand

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// cacheEntry represents one cached expansion result.
type cacheEntry struct {
	result     any
	expiresAt  time.Time
	accessedAt time.Time
}

// CacheConfig holds configuration for the expansion cache.
type CacheConfig struct {
	TTL             time.Duration // how long entries stay valid
	MaxEntries      int           // maximum number of entries before eviction
	CleanupInterval time.Duration // how often expired entries are swept
}

// DefaultCacheConfig provides sensible defaults for expansion caching.
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// Cache stores expansion and range-check results keyed by their inputs.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry

	ttl        time.Duration
	maxEntries int

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewCache creates a cache and starts its cleanup goroutine; call Close when
// done with it. Zero config fields fall back to DefaultCacheConfig.
func NewCache(config CacheConfig) *Cache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}
	c := &Cache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	c.mu.Lock()
	entry.accessedAt = time.Now()
	c.mu.Unlock()
	return entry.result, true
}

// Put stores value under key, evicting the least recently accessed entry when
// the cache is full.
func (c *Cache) Put(key string, value any) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = &cacheEntry{
		result:     value,
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. The cache stays usable afterwards but no
// longer sweeps expired entries.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.accessedAt.Before(oldest) {
			oldestKey, oldest = key, entry.accessedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// cacheKey derives a stable key from the expansion inputs.
func cacheKey(operation string, masterStart, masterEnd time.Time, info RecurrenceInfo, rangeStart, rangeEnd time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%s|%d|%d", operation, masterStart.Unix(), masterEnd.Unix(), info.RRule, rangeStart.Unix(), rangeEnd.Unix())
	for _, t := range info.RDates {
		fmt.Fprintf(h, "|r%d", t.Unix())
	}
	for _, t := range info.ExDates {
		fmt.Fprintf(h, "|x%d", t.Unix())
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
