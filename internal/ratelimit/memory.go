package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a per-process fixed-window limiter. Use Redis when more than one
// replica serves traffic.
type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	now     func() time.Time
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.clients[key]

	if !ok || !now.Before(b.windowEnd) {
		m.sweep(now)
		m.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(m.window),
		}
		return Decision{Allowed: true, Remaining: m.limit - 1}, nil
	}

	if b.count >= m.limit {
		retryAfter := b.windowEnd.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	b.count++
	return Decision{Allowed: true, Remaining: m.limit - b.count}, nil
}

// sweep drops expired buckets so idle keys do not accumulate. Caller holds mu.
func (m *Memory) sweep(now time.Time) {
	for k, b := range m.clients {
		if !now.Before(b.windowEnd) {
			delete(m.clients, k)
		}
	}
}
