package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores solve responses keyed by input digest
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and checks the connection
func NewRedisCache(addr, password string, db int) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisCacheFromClient(client), nil
}

func NewRedisCacheFromClient(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (cache *redisCache) Get(ctx context.Context, key string, dest any) error {
	raw, err := cache.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	} else if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

func (cache *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := cache.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

type memoryEntry struct {
	payload []byte
	expires time.Time
}

type memoryCache struct {
	mutex   sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache is the in-process fallback used when no Redis address is configured
func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (cache *memoryCache) Get(_ context.Context, key string, dest any) error {
	cache.mutex.Lock()
	entry, ok := cache.entries[key]
	if ok && !entry.expires.IsZero() && cache.now().After(entry.expires) {
		delete(cache.entries, key)
		ok = false
	}
	cache.mutex.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(entry.payload, dest)
}

func (cache *memoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	entry := memoryEntry{payload: payload}
	if ttl > 0 {
		entry.expires = cache.now().Add(ttl)
	}

	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	cache.entries[key] = entry
	return nil
}
