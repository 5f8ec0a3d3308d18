package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"yatube/internal/config"
	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	// ListingKeyPrefix namespaces listing entries so Clear can find them.
	ListingKeyPrefix = "listing:"
	// DefaultListingTTL matches the index page cache lifetime.
	DefaultListingTTL = 20 * time.Second
)

// ListingStore is a best-effort key/value store for rendered listing pages.
// Implementations never fail: a broken backend behaves like an empty cache.
type ListingStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
	Clear(ctx context.Context)
}

// IndexKey is the cache key of one page of the global feed.
// The raw query value is kept so "?page=abc" and "?page=1" are cached apart.
func IndexKey(rawPage string) string {
	return "index:page=" + strings.TrimSpace(rawPage)
}

// NewListingStore picks the backend named in cfg. The redis backend falls
// back to memory when no client is available.
func NewListingStore(backend string, rdb *redis.Client) ListingStore {
	var store ListingStore
	switch backend {
	case config.ListingCacheNone:
		store = NoopListingStore{}
	case config.ListingCacheRedis:
		if rdb != nil {
			store = NewRedisListingStore(rdb)
			break
		}
		fallthrough
	default:
		store = NewMemoryListingStore()
	}
	return Instrument(store)
}

type instrumented struct {
	ListingStore
}

// Instrument wraps store so hits, misses and clears are counted.
func Instrument(store ListingStore) ListingStore {
	if _, ok := store.(instrumented); ok {
		return store
	}
	return instrumented{store}
}

func (s instrumented) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := s.ListingStore.Get(ctx, key)
	if ok {
		observability.ListingCacheLookups.WithLabelValues("hit").Inc()
	} else {
		observability.ListingCacheLookups.WithLabelValues("miss").Inc()
	}
	return v, ok
}

func (s instrumented) Clear(ctx context.Context) {
	observability.ListingCacheClears.Inc()
	s.ListingStore.Clear(ctx)
}

// NoopListingStore never holds anything.
type NoopListingStore struct{}

func (NoopListingStore) Get(context.Context, string) ([]byte, bool)          { return nil, false }
func (NoopListingStore) Put(context.Context, string, []byte, time.Duration) {}
func (NoopListingStore) Clear(context.Context)                             {}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryListingStore keeps entries in process memory.
type MemoryListingStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryListingStore returns an empty in-process store.
func NewMemoryListingStore() *MemoryListingStore {
	return &MemoryListingStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryListingStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

func (s *MemoryListingStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	cp := make([]byte, len(value))
	copy(cp, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: cp, expires: s.now().Add(ttl)}
}

func (s *MemoryListingStore) Clear(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
}
