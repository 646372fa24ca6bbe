package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// MockRebuildBus is an in-process RebuildBus delivering to every subscriber
type MockRebuildBus struct {
	mu        sync.Mutex
	subs      []chan *domain.RebuildRequest
	published []*domain.RebuildRequest
}

// NewMockRebuildBus creates a new MockRebuildBus
func NewMockRebuildBus() *MockRebuildBus {
	return &MockRebuildBus{}
}

func (m *MockRebuildBus) Publish(ctx context.Context, req *domain.RebuildRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, req)
	for _, ch := range m.subs {
		select {
		case ch <- req:
		default:
		}
	}
	return nil
}

func (m *MockRebuildBus) Subscribe(ctx context.Context) (<-chan *domain.RebuildRequest, error) {
	ch := make(chan *domain.RebuildRequest, 16)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, c := range m.subs {
			if c == ch {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				close(ch)
				break
			}
		}
	}()
	return ch, nil
}

func (m *MockRebuildBus) Close() error {
	return nil
}

// Published returns every request passed to Publish
func (m *MockRebuildBus) Published() []*domain.RebuildRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.RebuildRequest, len(m.published))
	copy(out, m.published)
	return out
}
