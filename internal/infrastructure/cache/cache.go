// Package cache holds fetched records keyed by entity and id so edit pages can show the last
// known copy while a fresh fetch is in flight.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a JSON record cache.
type Store interface {
	// Get decodes the entry for key into dst. ok is false when there is no entry.
	Get(ctx context.Context, key string, dst interface{}) (ok bool, err error)
	Set(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, key string) error
}

// Key builds the cache key for a record.
func Key(entityName, id string) string {
	return entityName + ":" + id
}

const redisPrefix = "cache:"

// Redis stores entries as JSON strings with a TTL. TTL <= 0 keeps entries until overwritten.
type Redis struct {
	Rdb *redis.Client
	TTL time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{Rdb: rdb, TTL: ttl}
}

func (r *Redis) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := r.Rdb.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ttl := r.TTL
	if ttl < 0 {
		ttl = 0
	}
	return r.Rdb.Set(ctx, redisPrefix+key, b, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.Rdb.Del(ctx, redisPrefix+key).Err()
}

// Memory is an in-process Store, used by the CLI and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	m.mu.RLock()
	raw, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
