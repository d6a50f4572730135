// Package ratelimit throttles requests per client or per user with token
// buckets from golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// InMemoryRateLimiter keeps one token bucket per key in process memory.
// Suitable for single-instance deployments.
type InMemoryRateLimiter struct {
	rate  rate.Limit
	burst int

	mu      sync.Mutex
	entries map[string]*entry

	maxAge      time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewInMemoryRateLimiter creates a limiter allowing rps requests per second
// with bursts up to burst. Call Stop to end the cleanup goroutine.
func NewInMemoryRateLimiter(rps float64, burst int) *InMemoryRateLimiter {
	l := &InMemoryRateLimiter{
		rate:        rate.Limit(rps),
		burst:       burst,
		entries:     make(map[string]*entry),
		maxAge:      10 * time.Minute,
		stopCleanup: make(chan struct{}),
	}
	go l.cleanup(5 * time.Minute)
	return l
}

// Allow checks if a single request is allowed
func (l *InMemoryRateLimiter) Allow(_ context.Context, key string) bool {
	now := time.Now()
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[key] = e
	}
	e.lastAccess = now
	l.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

func (l *InMemoryRateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle(time.Now())
		case <-l.stopCleanup:
			return
		}
	}
}

// evictIdle drops buckets unused for longer than maxAge.
func (l *InMemoryRateLimiter) evictIdle(now time.Time) int {
	cutoff := now.Add(-l.maxAge)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, e := range l.entries {
		if e.lastAccess.Before(cutoff) {
			delete(l.entries, key)
			n++
		}
	}
	return n
}

// Stop stops the cleanup goroutine
func (l *InMemoryRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Len returns the number of tracked keys.
func (l *InMemoryRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
