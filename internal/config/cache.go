package config

import (
	"time"
)

// CacheConfig controls the GET response cache middleware.  Facility listings
// tolerate slightly stale reads, so a short TTL keeps the database out of the
// hot path without hiding admin edits for long.
type CacheConfig struct {
	Enabled bool          // master switch; also off when no Redis is available
	TTL     time.Duration // lifetime of a cached response body
}

// LoadCacheConfig builds a CacheConfig from environment variables, applying
// defaults when unset.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 30*time.Second),
	}
}
