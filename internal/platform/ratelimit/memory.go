package ratelimit

import (
	"context"
	"sync"
	"time"
)

// pruneThreshold bounds the map before expired windows are swept.
const pruneThreshold = 10000

type window struct {
	count   int
	resetAt time.Time
}

// Memory is a process-local Limiter.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemory creates an empty in-memory limiter.
func NewMemory() *Memory {
	return &Memory{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Check starts a new window when none exists or the previous one elapsed,
// increments while count < max, and denies once count reaches max.
func (m *Memory) Check(_ context.Context, key string, max int, d time.Duration) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.windows) > pruneThreshold {
		m.prune(now)
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(d)}
		m.windows[key] = w
		return Result{Allowed: true, Remaining: max - 1, ResetAt: w.resetAt}, nil
	}

	if w.count >= max {
		return Result{Allowed: false, Remaining: 0, ResetAt: w.resetAt}, nil
	}

	w.count++
	return Result{Allowed: true, Remaining: max - w.count, ResetAt: w.resetAt}, nil
}

// Reset removes the window for key.
func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
	return nil
}

// prune drops elapsed windows. Callers hold m.mu.
func (m *Memory) prune(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
