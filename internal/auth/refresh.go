package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnknownRefreshToken is returned when a refresh token is missing, expired or revoked.
var ErrUnknownRefreshToken = errors.New("unknown refresh token")

const refreshKeyPrefix = "refresh_token:"

// RefreshStore keeps refresh tokens alive until they expire or are revoked.
type RefreshStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// RedisRefreshStore stores refresh_token:<token> -> user id with a TTL.
type RedisRefreshStore struct {
	cache *redis.Client
}

// NewRedisRefreshStore builds a Redis-backed refresh store.
func NewRedisRefreshStore(cache *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{cache: cache}
}

func (s *RedisRefreshStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.cache.Set(ctx, refreshKeyPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (s *RedisRefreshStore) Lookup(ctx context.Context, token string) (string, error) {
	userID, err := s.cache.Get(ctx, refreshKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownRefreshToken
	}
	if err != nil {
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}
	return userID, nil
}

func (s *RedisRefreshStore) Revoke(ctx context.Context, token string) error {
	n, err := s.cache.Del(ctx, refreshKeyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if n == 0 {
		return ErrUnknownRefreshToken
	}
	return nil
}

type memoryEntry struct {
	userID  string
	expires time.Time
}

// MemoryRefreshStore is used in development when Redis is not configured.
type MemoryRefreshStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryRefreshStore builds an in-process refresh store.
func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryRefreshStore) Save(_ context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{userID: userID, expires: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryRefreshStore) Lookup(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok || time.Now().After(e.expires) {
		delete(s.entries, token)
		return "", ErrUnknownRefreshToken
	}
	return e.userID, nil
}

func (s *MemoryRefreshStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[token]; !ok {
		return ErrUnknownRefreshToken
	}
	delete(s.entries, token)
	return nil
}
