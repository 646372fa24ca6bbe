package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// MockFeedbackStore is an in-memory FeedbackStore for testing
type MockFeedbackStore struct {
	mu      sync.Mutex
	records map[string]domain.AnswerRecord

	// Optional override
	SaveFn func(record *domain.AnswerRecord) error
}

// NewMockFeedbackStore creates an empty store
func NewMockFeedbackStore() *MockFeedbackStore {
	return &MockFeedbackStore{records: make(map[string]domain.AnswerRecord)}
}

func (m *MockFeedbackStore) Save(ctx context.Context, record *domain.AnswerRecord) error {
	if m.SaveFn != nil {
		if err := m.SaveFn(record); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = *record
	return nil
}

func (m *MockFeedbackStore) Get(ctx context.Context, id string) (*domain.AnswerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *MockFeedbackStore) ListFlagged(ctx context.Context, limit int) ([]*domain.AnswerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AnswerRecord
	for _, rec := range m.records {
		if rec.Flagged {
			rec := rec
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockFeedbackStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns how many records are stored
func (m *MockFeedbackStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
