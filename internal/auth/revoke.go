package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// Revoker records logged-out tokens until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, s *Session) error
	IsRevoked(ctx context.Context, s *Session) (bool, error)
}

// MemoryRevoker keeps revocations in process memory.
type MemoryRevoker struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevoker creates an empty in-memory revocation list.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{entries: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryRevoker) Revoke(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.entries[s.RevocationKey()] = now.Add(s.TTL(now))
	m.sweepLocked(now)
	return nil
}

func (m *MemoryRevoker) IsRevoked(_ context.Context, s *Session) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.entries[s.RevocationKey()]
	if !ok {
		return false, nil
	}
	if m.now().After(until) {
		delete(m.entries, s.RevocationKey())
		return false, nil
	}
	return true, nil
}

func (m *MemoryRevoker) sweepLocked(now time.Time) {
	for k, until := range m.entries {
		if now.After(until) {
			delete(m.entries, k)
		}
	}
}

const redisKeyPrefix = "resume-insights:revoked:"

// RedisRevoker stores revocations in Redis so every server instance sees them.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker connects to the Redis instance at url (redis://...).
func NewRedisRevoker(ctx context.Context, url string) (*RedisRevoker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to instrument redis: %w", err)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisRevoker{client: client}, nil
}

// NewRedisRevokerFromClient wraps an existing client.
func NewRedisRevokerFromClient(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) Revoke(ctx context.Context, s *Session) error {
	if err := r.client.Set(ctx, redisKeyPrefix+s.RevocationKey(), "1", s.TTL(time.Now())).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, s *Session) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+s.RevocationKey()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}

// Close releases the Redis connection pool.
func (r *RedisRevoker) Close() error {
	return r.client.Close()
}
