package driven

import (
	"context"
)

// LLMService generates text from a fully rendered prompt
type LLMService interface {
	// Generate returns the raw model completion for the prompt.
	// Timeouts are enforced through ctx and the adapter's HTTP client.
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
