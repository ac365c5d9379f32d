package expand

import (
	"log/slog"
	"time"
)

// Config holds configuration options for the expansion engine.
type Config struct {
	// Cache configuration
	CacheEnabled bool
	Cache        CacheConfig

	// Performance tuning
	MaxOccurrences      int           // cap on occurrences returned by one expansion
	LargeRangeThreshold time.Duration // ranges longer than this get a limited first pass
	LargeRangeLimit     time.Duration // length of that limited first pass

	// Logger receives debug output; nil discards it.
	Logger *slog.Logger
}

// DefaultConfig provides sensible defaults for production use.
var DefaultConfig = Config{
	CacheEnabled: true,
	Cache:        DefaultCacheConfig,

	MaxOccurrences:      1000,
	LargeRangeThreshold: 90 * 24 * time.Hour,
	LargeRangeLimit:     90 * 24 * time.Hour,
}

// HighPerformanceConfig is optimized for high-traffic scenarios: longer cache
// retention, shallower expansion checks.
var HighPerformanceConfig = Config{
	CacheEnabled: true,
	Cache: CacheConfig{
		TTL:             30 * time.Minute,
		MaxEntries:      5000,
		CleanupInterval: 10 * time.Minute,
	},

	MaxOccurrences:      500,
	LargeRangeThreshold: 30 * 24 * time.Hour,
	LargeRangeLimit:     30 * 24 * time.Hour,
}

// LowMemoryConfig is optimized for memory-constrained environments.
var LowMemoryConfig = Config{
	CacheEnabled: true,
	Cache: CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 2 * time.Minute,
	},

	MaxOccurrences:      1000,
	LargeRangeThreshold: 180 * 24 * time.Hour,
	LargeRangeLimit:     180 * 24 * time.Hour,
}
