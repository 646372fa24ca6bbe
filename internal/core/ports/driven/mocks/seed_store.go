package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// MockSeedStore is an in-memory SeedStore for testing
type MockSeedStore struct {
	mu      sync.RWMutex
	records map[string]*domain.SeedRecord
	saved   int

	// Err is returned by every call when set
	Err error
}

// NewMockSeedStore creates a new MockSeedStore
func NewMockSeedStore() *MockSeedStore {
	return &MockSeedStore{
		records: make(map[string]*domain.SeedRecord),
	}
}

func (m *MockSeedStore) GetAll(ctx context.Context) (map[string]*domain.SeedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]*domain.SeedRecord, len(m.records))
	for id, r := range m.records {
		cp := *r
		out[id] = &cp
	}
	return out, nil
}

func (m *MockSeedStore) SaveBatch(ctx context.Context, records []*domain.SeedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, r := range records {
		cp := *r
		m.records[r.ChunkID] = &cp
		m.saved++
	}
	return nil
}

func (m *MockSeedStore) Prune(ctx context.Context, keep []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	removed := 0
	for id := range m.records {
		if _, ok := keepSet[id]; !ok {
			delete(m.records, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MockSeedStore) Ping(ctx context.Context) error {
	return m.Err
}

func (m *MockSeedStore) Close() error {
	return nil
}

// Saved returns how many records have been written
func (m *MockSeedStore) Saved() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saved
}

// Len returns how many records are stored
func (m *MockSeedStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
