package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMemoryEntries = 1024

// MemoryStore is an in-process TTL cache used when no Redis address is
// configured. Backed by an expirable LRU, so it also bounds memory in long
// deployments. The TTL is fixed at construction; per-call TTLs shorter or
// longer than the configured one are not supported, which is fine here
// because every caller writes with the store's own default.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
	ttl time.Duration
}

// NewMemoryStore creates an in-process store holding up to maxEntries values
// for ttl each. Non-positive arguments fall back to defaults.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
		ttl: ttl,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	return s.lru.Get(key)
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	s.lru.Add(key, value)
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.lru.Purge()
	return nil
}

func (s *MemoryStore) Len(_ context.Context) int {
	return s.lru.Len()
}
