package driven

import (
	"context"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// ConversationStore persists conversation state server-side (Redis).
// It is optional: without it the caller resends history on every request.
type ConversationStore interface {
	// Load retrieves the state for a conversation.
	// Returns domain.ErrNotFound if nothing is stored.
	Load(ctx context.Context, conversationID string) (*domain.ConversationState, error)

	// Save stores the state, refreshing its TTL
	Save(ctx context.Context, conversationID string, state *domain.ConversationState) error

	// Delete forgets a conversation
	Delete(ctx context.Context, conversationID string) error

	// Ping checks if the store backend is healthy
	Ping(ctx context.Context) error
}
