package config

import (
	"time"
)

// CacheConfig controls the short-lived Redis cache in front of the
// inventory polling endpoint.  Inventory responses are advisory, so a TTL of
// a couple of seconds keeps polling shoppers off the database without
// showing seats stale for long.  Only GET requests are cached.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables; defaults are used when unset.
func LoadCacheConfig() CacheConfig {
	c := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 2*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "inv"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if c.TTL <= 0 {
		c.Enabled = false
	}
	return c
}
