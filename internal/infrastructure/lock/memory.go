package lock

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process keyed lock. It is suitable for single-instance
// deployments and testing; distributed deployments need the Postgres or
// Redis backend.
type Memory struct {
	mu      sync.Mutex
	locks   map[string]*memoryEntry
	timeout time.Duration
}

type memoryEntry struct {
	ch   chan struct{} // capacity 1, holding the token means holding the lock
	refs int
}

// NewMemory creates an in-process keyed lock with the given acquire timeout.
// A zero timeout means wait until the context is done.
func NewMemory(timeout time.Duration) *Memory {
	return &Memory{
		locks:   make(map[string]*memoryEntry),
		timeout: timeout,
	}
}

// WithLock implements Keyed
func (m *Memory) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	e := m.retain(key)
	defer m.release(key)

	var timeoutCh <-chan time.Time
	if m.timeout > 0 {
		timer := time.NewTimer(m.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-timeoutCh:
		return &TimeoutError{Key: key, Timeout: m.timeout}
	}
	defer func() { <-e.ch }()

	return fn(ctx)
}

// retain fetches or creates the entry for key and bumps its refcount so a
// concurrent release cannot delete it while a waiter is queued on it
func (m *Memory) retain(key string) *memoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.locks[key]
	if !ok {
		e = &memoryEntry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	return e
}

func (m *Memory) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.locks[key]
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}

var _ Keyed = (*Memory)(nil)
