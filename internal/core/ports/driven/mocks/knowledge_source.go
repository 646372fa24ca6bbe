package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// MockKnowledgeSource serves a fixed knowledge base
type MockKnowledgeSource struct {
	mu    sync.Mutex
	kb    *domain.KnowledgeBase
	Err   error
	loads int
}

// NewMockKnowledgeSource creates a source returning kb
func NewMockKnowledgeSource(kb *domain.KnowledgeBase) *MockKnowledgeSource {
	return &MockKnowledgeSource{kb: kb}
}

func (m *MockKnowledgeSource) Load(ctx context.Context) (*domain.KnowledgeBase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.kb, nil
}

func (m *MockKnowledgeSource) Location() string {
	return "mock://knowledge"
}

// Set replaces the served knowledge base
func (m *MockKnowledgeSource) Set(kb *domain.KnowledgeBase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kb = kb
}

// Loads returns how many times Load was called
func (m *MockKnowledgeSource) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}
