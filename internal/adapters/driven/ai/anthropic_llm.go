package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Ensure AnthropicLLM implements LLMService
var _ driven.LLMService = (*AnthropicLLM)(nil)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicLLM implements LLMService using the Messages API
type AnthropicLLM struct {
	model      string
	maxTokens  int64
	httpClient *http.Client
	client     anthropic.Client
}

// NewAnthropicLLM creates a new Anthropic service. baseURL is optional.
func NewAnthropicLLM(apiKey, model, baseURL string) (driven.LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if model == "" {
		model = defaultAnthropicModel
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &AnthropicLLM{
		model:      model,
		maxTokens:  512,
		httpClient: httpClient,
		client:     anthropic.NewClient(opts...),
	}, nil
}

// Generate returns the completion for prompt
func (l *AnthropicLLM) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := l.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(l.model),
		MaxTokens: l.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, content := range resp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	if b.Len() == 0 {
		return "", errors.New("no response from Anthropic")
	}
	return b.String(), nil
}

// Model returns the model name being used
func (l *AnthropicLLM) Model() string {
	return l.model
}

// Ping lists models to verify credentials and connectivity
func (l *AnthropicLLM) Ping(ctx context.Context) error {
	if _, err := l.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("anthropic ping: %w", err)
	}
	return nil
}

// Close releases resources held by the LLM service
func (l *AnthropicLLM) Close() error {
	l.httpClient.CloseIdleConnections()
	return nil
}
