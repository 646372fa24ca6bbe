package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// MockConversationStore is an in-memory ConversationStore for testing
type MockConversationStore struct {
	mu     sync.RWMutex
	states map[string]*domain.ConversationState
	saves  int
}

// NewMockConversationStore creates a new MockConversationStore
func NewMockConversationStore() *MockConversationStore {
	return &MockConversationStore{
		states: make(map[string]*domain.ConversationState),
	}
}

func (m *MockConversationStore) Load(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[conversationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.ConversationState{
		Turns:               state.History(),
		LastDiscussedEntity: state.LastDiscussedEntity,
	}, nil
}

func (m *MockConversationStore) Save(ctx context.Context, conversationID string, state *domain.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[conversationID] = &domain.ConversationState{
		Turns:               state.History(),
		LastDiscussedEntity: state.LastDiscussedEntity,
	}
	m.saves++
	return nil
}

func (m *MockConversationStore) Delete(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, conversationID)
	return nil
}

func (m *MockConversationStore) Ping(ctx context.Context) error {
	return nil
}

// Saves returns how many times Save was called
func (m *MockConversationStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
