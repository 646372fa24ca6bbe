package driving

import (
	"context"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// IndexService exposes the knowledge index for search, rebuilds and audit
type IndexService interface {
	// Search returns ranked chunks for a free-text query
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Rebuild reloads the knowledge base and atomically replaces the index
	Rebuild(ctx context.Context) (*domain.IndexStats, error)

	// Stats returns statistics for the published index, or nil before the first build
	Stats() *domain.IndexStats

	// Ready reports whether an index has been published
	Ready() bool
}
