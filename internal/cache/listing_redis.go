package cache

import (
	"context"
	"errors"
	"time"

	"yatube/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const clearScanCount = 100

// RedisListingStore keeps listing pages in Redis under ListingKeyPrefix so
// every app instance shares them.
type RedisListingStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisListingStore returns a store backed by rdb.
func NewRedisListingStore(rdb *redis.Client) *RedisListingStore {
	return &RedisListingStore{rdb: rdb, prefix: ListingKeyPrefix}
}

func (s *RedisListingStore) Get(ctx context.Context, key string) ([]byte, bool) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "listing cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return v, true
}

func (s *RedisListingStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := s.rdb.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "listing cache put failed", "key", key, "error", err)
	}
}

// Clear deletes every listing key. Other keys in the database are untouched.
func (s *RedisListingStore) Clear(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.prefix+"*", clearScanCount).Result()
		if err != nil {
			middleware.Logger.WarnContext(ctx, "listing cache clear failed", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				middleware.Logger.WarnContext(ctx, "listing cache clear failed", "error", err)
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}
