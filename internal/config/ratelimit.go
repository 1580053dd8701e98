package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig controls the Redis token-bucket limiter applied to the
// authentication endpoints. When Enabled is false or Redis is unavailable
// the middleware becomes a pass-through.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string // ip | user | route | ip_route (default ip_route)
	Prefix         string
}

// LoadRateLimitConfig reads the RATE_LIMIT_* environment variables with
// sensible defaults for a small deployment.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
	}
}

// CacheConfig defines settings for the response cache middleware. Methods
// lists the HTTP methods to cache; TTL is the entry lifetime. Only bodies
// up to MaxBodyBytes are stored.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* environment variables.
func LoadCacheConfig() CacheConfig {
	methods := map[string]bool{}
	for _, m := range strings.Split(getenv("CACHE_METHODS", "GET"), ",") {
		if m = strings.TrimSpace(strings.ToUpper(m)); m != "" {
			methods[m] = true
		}
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methods,
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       getenv("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
