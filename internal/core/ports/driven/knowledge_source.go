package driven

import (
	"context"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// KnowledgeSource loads the structured knowledge base
type KnowledgeSource interface {
	Load(ctx context.Context) (*domain.KnowledgeBase, error)

	// Location describes where the knowledge base is read from (for logs)
	Location() string
}
