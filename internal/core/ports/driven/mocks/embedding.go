package mocks

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"
)

// ErrMockEmbedding is returned for texts configured to fail
var ErrMockEmbedding = errors.New("mock embedding failure")

// stopwords are dropped before hashing so that function words do not
// dominate similarity between short queries and chunk texts.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"what": {}, "whats": {}, "what's": {}, "do": {}, "does": {}, "you": {},
	"your": {}, "have": {}, "has": {}, "i": {}, "me": {}, "my": {}, "it": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "and": {}, "or": {}, "for": {},
	"can": {}, "tell": {}, "about": {}, "with": {}, "at": {}, "be": {},
}

// MockEmbeddingService is a mock implementation of EmbeddingService for testing.
// It produces L2-normalised bag-of-words vectors: every non-stopword token is
// hashed into one of the dimensions, so texts sharing words are similar.
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	model      string
	failNext   bool
	failBatch  bool
	failOn     []string
	embedCalls int
	queryCalls int
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 384,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failNext {
		m.failNext = false
		return nil, context.DeadlineExceeded
	}
	if m.failBatch && len(texts) > 1 {
		return nil, ErrMockEmbedding
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		if m.shouldFail(text) {
			return nil, ErrMockEmbedding
		}
		result[i] = m.generateEmbedding(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failNext {
		m.failNext = false
		return nil, context.DeadlineExceeded
	}
	if m.shouldFail(query) {
		return nil, ErrMockEmbedding
	}
	return m.generateEmbedding(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

func (m *MockEmbeddingService) shouldFail(text string) bool {
	for _, s := range m.failOn {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// generateEmbedding hashes tokens into a normalised term-frequency vector
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	embedding := make([]float32, m.dimensions)
	for _, token := range Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		embedding[h.Sum32()%uint32(m.dimensions)]++
	}

	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return embedding
	}
	norm = math.Sqrt(norm)
	for i := range embedding {
		embedding[i] = float32(float64(embedding[i]) / norm)
	}
	return embedding
}

// Tokenize lowercases text, splits on non-alphanumerics and drops stopwords
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f == "" {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Helper methods for testing

func (m *MockEmbeddingService) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// SetFailBatch makes every multi-text Embed call fail, forcing per-chunk retries
func (m *MockEmbeddingService) SetFailBatch(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failBatch = fail
}

// SetFailOn makes any text containing one of the substrings fail to embed
func (m *MockEmbeddingService) SetFailOn(substrings ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = substrings
}

func (m *MockEmbeddingService) SetDimensions(dim int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = dim
}

// EmbedCalls returns how many times Embed was called
func (m *MockEmbeddingService) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}

// QueryCalls returns how many times EmbedQuery was called
func (m *MockEmbeddingService) QueryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCalls
}
