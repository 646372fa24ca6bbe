package mocks

import (
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// MockNormaliser is a mock implementation of Normaliser for testing
type MockNormaliser struct {
	NameFn      func() string
	PriorityFn  func() int
	NormaliseFn func(text string) string
}

func NewMockNormaliser() *MockNormaliser {
	return &MockNormaliser{}
}

func (m *MockNormaliser) Normalise(text string) string {
	if m.NormaliseFn != nil {
		return m.NormaliseFn(text)
	}
	return text
}

func (m *MockNormaliser) Name() string {
	if m.NameFn != nil {
		return m.NameFn()
	}
	return "mock"
}

func (m *MockNormaliser) Priority() int {
	if m.PriorityFn != nil {
		return m.PriorityFn()
	}
	return 50
}

var _ driven.Normaliser = (*MockNormaliser)(nil)
