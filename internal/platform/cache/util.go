package cache

import "time"

// DefaultTTL is used when no cache TTL is configured.
const DefaultTTL = 5 * time.Minute

// EffectiveTTL bounds the configured TTL by the fetch interval. A cached
// latest value never needs to outlive the next cycle, and a missed
// write-through then heals itself by the time fresh data exists.
func EffectiveTTL(configured, fetchInterval time.Duration) time.Duration {
	ttl := configured
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if fetchInterval > 0 && fetchInterval < ttl {
		ttl = fetchInterval
	}
	return ttl
}
