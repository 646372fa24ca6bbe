package driven

import (
	"context"
)

// EmbeddingService turns KB chunk text and guest utterances into vectors.
// Chunk and query vectors must come from the same model to be comparable.
type EmbeddingService interface {
	// Embed returns one vector per text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single normalised utterance
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions is the vector length the model produces
	Dimensions() int

	// Model names the model; stored alongside seed records
	Model() string

	HealthCheck(ctx context.Context) error
	Close() error
}
