// Package cache holds short-lived key/value state: one-time auth tokens,
// cached product reads and consumer dedup markers.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	KeyEmailVerify   = "auth:verify:%s"
	KeyPasswordReset = "auth:reset:%s"
	KeyProduct       = "product:%s"
	KeyDedup         = "dedup:%s:%s"
	KeyUserStanding  = "user:standing:%s"
)

const (
	TTLEmailVerify   = 24 * time.Hour
	TTLPasswordReset = 15 * time.Minute
	TTLProduct       = 5 * time.Minute
	TTLDedup         = 48 * time.Hour
	// A changed role or status reaches other API nodes within this window when
	// the in-process store is used. Redis deployments see it at once.
	TTLUserStanding = 30 * time.Second
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Key formats one of the Key* templates.
func Key(tmpl string, parts ...any) string { return fmt.Sprintf(tmpl, parts...) }

// Store is the key/value contract used by services and the worker.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// GetDel reads and removes a key in one step, for single-use tokens.
	GetDel(ctx context.Context, key string) (string, error)
	// SetNX sets a key only if it is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// NewRedisClient builds a client with short timeouts. Callers should Ping before use.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

type redisStore struct {
	rdb redis.Cmdable
}

// NewRedis wraps a go-redis client.
func NewRedis(rdb redis.Cmdable) Store { return &redisStore{rdb: rdb} }

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) GetDel(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (s *redisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (s *redisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

type entry struct {
	value   string
	expires time.Time
}

// memoryStore backs single-instance deployments without Redis.
type memoryStore struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time
}

// NewMemory returns an in-process Store. Expired keys are dropped when read.
func NewMemory() Store {
	return &memoryStore{m: make(map[string]entry), now: time.Now}
}

func (s *memoryStore) lookup(key string) (entry, bool) {
	e, ok := s.m[key]
	if !ok {
		return entry{}, false
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.m, key)
		return entry{}, false
	}
	return e, true
}

func (s *memoryStore) put(key, value string, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.m[key] = e
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return "", ErrMiss
	}
	return e.value, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, value, ttl)
	return nil
}

func (s *memoryStore) GetDel(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return "", ErrMiss
	}
	delete(s.m, key)
	return e.value, nil
}

func (s *memoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(key); ok {
		return false, nil
	}
	s.put(key, value, ttl)
	return true, nil
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}
