// Package cache memoizes valuation results keyed by the raw listing title.
// The cache is never a source of truth: every operation degrades to a miss on
// failure, so a broken or absent backend only costs recomputation.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"
)

// DefaultTTL is how long a cached valuation stays valid. Expiration is fixed,
// not sliding; an expired entry is indistinguishable from an absent one.
const DefaultTTL = 3600 * time.Second

// Store is a TTL-bounded key-value store for serialized valuation results.
// Implementations must treat backend failures as misses on Get and as no-ops
// on Set. Concurrent writers to the same key always compute the same value
// from the same inputs, so last-writer-wins needs no extra synchronization.
type Store interface {
	// Get returns the stored value, or ok=false for missing/expired keys
	// and backend errors alike.
	Get(ctx context.Context, key string) (value []byte, ok bool)

	// Set stores value under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Clear removes every entry. Ops-facing; never called on the request path.
	Clear(ctx context.Context) error

	// Len reports the current number of live entries.
	Len(ctx context.Context) int
}

// Key builds a stable cache key from a namespace prefix and a raw identifier.
// Long identifiers (listing titles) are hashed so keys stay short.
func Key(prefix, identifier string) string {
	sum := md5.Sum([]byte(identifier))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
