package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockDistributedLock is an in-process lock with expiry. It records every
// acquisition and release so tests can assert a conversation lock was
// taken and given back.
type MockDistributedLock struct {
	mu      sync.Mutex
	expiry  map[string]time.Time
	owners  map[string]string
	history []LockEvent

	// Optional overrides
	AcquireFn func(name string, ttl time.Duration) (bool, error)
	PingFn    func() error
}

// LockEvent is one recorded lock operation
type LockEvent struct {
	Op   string // "acquire", "contended", "extend" or "release"
	Name string
}

// MockLockOwner is the owner id recorded for locks taken through Acquire
const MockLockOwner = "mock-instance"

// NewMockDistributedLock creates an empty lock
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		expiry: make(map[string]time.Time),
		owners: make(map[string]string),
	}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if until, ok := m.expiry[name]; ok && time.Now().Before(until) {
		m.history = append(m.history, LockEvent{Op: "contended", Name: name})
		return false, nil
	}
	m.expiry[name] = time.Now().Add(ttl)
	m.owners[name] = MockLockOwner
	m.history = append(m.history, LockEvent{Op: "acquire", Name: name})
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.expiry, name)
	delete(m.owners, name)
	m.history = append(m.history, LockEvent{Op: "release", Name: name})
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.expiry[name]
	if !ok || time.Now().After(until) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.expiry[name] = time.Now().Add(ttl)
	m.history = append(m.history, LockEvent{Op: "extend", Name: name})
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// Holder returns the owner of name, or "" when free
func (m *MockDistributedLock) Holder(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if until, ok := m.expiry[name]; !ok || time.Now().After(until) {
		return "", nil
	}
	return m.owners[name], nil
}

// Hold marks name as taken by owner for ttl
func (m *MockDistributedLock) Hold(name, owner string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry[name] = time.Now().Add(ttl)
	m.owners[name] = owner
}

// IsHeld reports whether name is currently taken
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.expiry[name]
	return ok && time.Now().Before(until)
}

// History returns a copy of the recorded operations
func (m *MockDistributedLock) History() []LockEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LockEvent, len(m.history))
	copy(out, m.history)
	return out
}

// Count returns how many recorded operations match op
func (m *MockDistributedLock) Count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.history {
		if e.Op == op {
			n++
		}
	}
	return n
}
