package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the result cache with Redis so cached valuations survive
// restarts and are shared across replicas. Every error path degrades to a
// cache miss; Redis being down must never fail a request.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection. A failed ping
// is returned to the caller so startup can fall back to the in-process store.
func NewRedisStore(ctx context.Context, addr, password string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("Result cache: connected to redis at %s", addr)
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("Result cache: get %s failed, treating as miss: %v", key, err)
		return nil, false
	}
	return value, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("Result cache: set %s failed: %v", key, err)
	}
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.FlushDB(ctx).Err()
}

func (s *RedisStore) Len(ctx context.Context) int {
	size, err := s.client.DBSize(ctx).Result()
	if err != nil {
		log.Printf("Result cache: dbsize failed: %v", err)
		return 0
	}
	return int(size)
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
