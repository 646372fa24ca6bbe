package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// MockSpeechSynthesizer is a mock implementation of SpeechSynthesizer for testing
type MockSpeechSynthesizer struct {
	mu    sync.Mutex
	Err   error
	texts []string
}

// NewMockSpeechSynthesizer creates a new MockSpeechSynthesizer
func NewMockSpeechSynthesizer() *MockSpeechSynthesizer {
	return &MockSpeechSynthesizer{}
}

func (m *MockSpeechSynthesizer) Synthesize(ctx context.Context, text string) (*domain.Audio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.Audio{Bytes: []byte("audio:" + text), MimeType: "audio/mpeg"}, nil
}

func (m *MockSpeechSynthesizer) Close() error {
	return nil
}

// Texts returns every text passed to Synthesize
func (m *MockSpeechSynthesizer) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}
