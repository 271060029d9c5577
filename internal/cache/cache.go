// Package cache keeps the catalog listing served by GET /api/books.
//
// Redis is used when configured; otherwise entries live in process memory.
// Both expire after the configured TTL and are dropped whenever stock or the
// catalog changes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/datptitudu2/backendthuvienptit/internal/config"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

const (
	catalogKey = "catalog:books"
	DefaultTTL = 5 * time.Minute
)

type store interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	del(ctx context.Context, key string) error
	close() error
}

// CatalogCache caches the book listing.
type CatalogCache struct {
	store store
	ttl   time.Duration
}

// New builds a Redis-backed cache when cfg.Enabled, or an in-memory one otherwise.
func New(cfg config.Cache) *CatalogCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if !cfg.Enabled {
		return &CatalogCache{store: newMemoryStore(), ttl: ttl}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &CatalogCache{store: &redisStore{client: client}, ttl: ttl}
}

// GetBooks returns the cached listing; ok is false on a miss.
func (c *CatalogCache) GetBooks(ctx context.Context) ([]entities.Book, bool, error) {
	raw, ok, err := c.store.get(ctx, catalogKey)
	if err != nil || !ok {
		return nil, false, err
	}
	var books []entities.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.store.del(ctx, catalogKey)
		return nil, false, nil
	}
	return books, true, nil
}

// SetBooks stores the listing.
func (c *CatalogCache) SetBooks(ctx context.Context, books []entities.Book) error {
	raw, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return c.store.set(ctx, catalogKey, raw, c.ttl)
}

// InvalidateCatalog drops the cached listing.
func (c *CatalogCache) InvalidateCatalog(ctx context.Context) error {
	if err := c.store.del(ctx, catalogKey); err != nil {
		return fmt.Errorf("invalidate catalog: %w", err)
	}
	return nil
}

// Ping checks the backing store.
func (c *CatalogCache) Ping(ctx context.Context) error {
	if rs, ok := c.store.(*redisStore); ok {
		return rs.client.Ping(ctx).Err()
	}
	return nil
}

func (c *CatalogCache) Close() error {
	return c.store.close()
}

type redisStore struct {
	client *redis.Client
}

func (s *redisStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *redisStore) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *redisStore) close() error {
	return s.client.Close()
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryStore) get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if s.now().After(e.expires) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *memoryStore) set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) close() error {
	return nil
}
