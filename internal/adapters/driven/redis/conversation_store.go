package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.ConversationStore = (*ConversationStore)(nil)

const conversationPrefix = "concierge:conversation:"

// DefaultConversationTTL is how long an idle conversation is kept
const DefaultConversationTTL = 24 * time.Hour

// ConversationStore implements driven.ConversationStore using Redis.
// Each conversation is one JSON value whose TTL is refreshed on every save.
type ConversationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConversationStore creates a new Redis-backed ConversationStore.
// A non-positive ttl falls back to DefaultConversationTTL.
func NewConversationStore(client *redis.Client, ttl time.Duration) *ConversationStore {
	if ttl <= 0 {
		ttl = DefaultConversationTTL
	}
	return &ConversationStore{client: client, ttl: ttl}
}

// Load retrieves the state for a conversation
func (s *ConversationStore) Load(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	data, err := s.client.Get(ctx, conversationPrefix+conversationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	var state domain.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &state, nil
}

// Save stores the state and refreshes its TTL
func (s *ConversationStore) Save(ctx context.Context, conversationID string, state *domain.ConversationState) error {
	if state == nil {
		state = &domain.ConversationState{}
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	if err := s.client.Set(ctx, conversationPrefix+conversationID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Delete forgets a conversation
func (s *ConversationStore) Delete(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, conversationPrefix+conversationID).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// Ping checks if the Redis backend is healthy
func (s *ConversationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
