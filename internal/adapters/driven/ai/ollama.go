package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

var (
	_ driven.LLMService       = (*OllamaLLM)(nil)
	_ driven.EmbeddingService = (*OllamaEmbedding)(nil)
)

const (
	defaultOllamaBaseURL        = "http://localhost:11434"
	defaultOllamaModel          = "llama3.2"
	defaultOllamaEmbeddingModel = "nomic-embed-text"
)

// Embedding sizes for common Ollama embedding models
var ollamaModelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

// ollamaClient wraps the official Ollama API client shared by the adapters
type ollamaClient struct {
	baseURL *url.URL
	http    *http.Client
	api     *api.Client
}

func newOllamaClient(baseURL string, timeout time.Duration) (*ollamaClient, error) {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL %q: %w", baseURL, err)
	}
	httpClient := &http.Client{Timeout: timeout}
	return &ollamaClient{
		baseURL: base,
		http:    httpClient,
		api:     api.NewClient(base, httpClient),
	}, nil
}

// ping lists local models, which also proves the server answers API calls
func (c *ollamaClient) ping(ctx context.Context) error {
	if _, err := c.api.List(ctx); err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	return nil
}

// OllamaLLM implements LLMService with a self-hosted Ollama server
type OllamaLLM struct {
	model  string
	client *ollamaClient
}

// NewOllamaLLM creates a new Ollama generation service
func NewOllamaLLM(baseURL, model string) (driven.LLMService, error) {
	if model == "" {
		model = defaultOllamaModel
	}
	client, err := newOllamaClient(baseURL, 60*time.Second)
	if err != nil {
		return nil, err
	}
	return &OllamaLLM{model: model, client: client}, nil
}

// Generate returns the completion for prompt
func (l *OllamaLLM) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	var out strings.Builder
	err := l.client.api.Generate(ctx, &api.GenerateRequest{
		Model:  l.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}

// Model returns the model name being used
func (l *OllamaLLM) Model() string {
	return l.model
}

// Ping verifies the Ollama server is reachable
func (l *OllamaLLM) Ping(ctx context.Context) error {
	return l.client.ping(ctx)
}

// Close releases idle connections
func (l *OllamaLLM) Close() error {
	l.client.http.CloseIdleConnections()
	return nil
}

// OllamaEmbedding implements EmbeddingService with a self-hosted Ollama server
type OllamaEmbedding struct {
	model      string
	dimensions int
	client     *ollamaClient
}

// NewOllamaEmbedding creates a new Ollama embedding service
func NewOllamaEmbedding(baseURL, model string) (driven.EmbeddingService, error) {
	if model == "" {
		model = defaultOllamaEmbeddingModel
	}

	dimensions, ok := ollamaModelDimensions[model]
	if !ok {
		dimensions = 768
	}

	client, err := newOllamaClient(baseURL, 60*time.Second)
	if err != nil {
		return nil, err
	}
	return &OllamaEmbedding{
		model:      model,
		dimensions: dimensions,
		client:     client,
	}, nil
}

// Embed generates embeddings for multiple texts
func (e *OllamaEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.api.Embed(ctx, &api.EmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

// EmbedQuery generates an embedding for a search query
func (e *OllamaEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size
func (e *OllamaEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OllamaEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the Ollama server is reachable
func (e *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	return e.client.ping(ctx)
}

// Close releases idle connections
func (e *OllamaEmbedding) Close() error {
	e.client.http.CloseIdleConnections()
	return nil
}
