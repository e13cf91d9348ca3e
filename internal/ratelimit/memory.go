package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory limits within a single process.
type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	now     func() time.Time
	clients map[string]*bucket

	nextSweep time.Time
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*bucket),
	}
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.clients[key]
	if !ok || now.After(b.windowEnd) {
		if !now.Before(m.nextSweep) {
			m.sweep(now)
			m.nextSweep = now.Add(m.window)
		}
		m.clients[key] = &bucket{count: 1, windowEnd: now.Add(m.window)}
		return Decision{Allowed: true, Remaining: m.limit - 1}, nil
	}

	if b.count >= m.limit {
		retry := b.windowEnd.Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	b.count++
	return Decision{Allowed: true, Remaining: m.limit - b.count}, nil
}

// sweep drops expired buckets so idle clients do not pin memory. It runs at
// most once per window.
func (m *Memory) sweep(now time.Time) {
	for k, b := range m.clients {
		if now.After(b.windowEnd) {
			delete(m.clients, k)
		}
	}
}
