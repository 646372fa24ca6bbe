package driven

import (
	"context"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// SeedStore persists embedded chunks so rebuilds can skip re-embedding
// unchanged content (PostgreSQL with pgvector, or SQLite).
type SeedStore interface {
	// GetAll returns every stored record keyed by chunk ID
	GetAll(ctx context.Context) (map[string]*domain.SeedRecord, error)

	// SaveBatch upserts records by chunk ID in a single transaction
	SaveBatch(ctx context.Context, records []*domain.SeedRecord) error

	// Prune deletes records whose chunk ID is not in keep and returns how many were removed
	Prune(ctx context.Context, keep []string) (int, error)

	// Ping checks if the store backend is healthy
	Ping(ctx context.Context) error

	// Close releases the underlying connection
	Close() error
}
