package driven

import (
	"context"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// FeedbackStore keeps delivered answers with their guest ratings and flags
type FeedbackStore interface {
	// Save inserts or replaces the record with the same ID
	Save(ctx context.Context, record *domain.AnswerRecord) error

	// Get returns domain.ErrNotFound for an unknown or expired ID
	Get(ctx context.Context, id string) (*domain.AnswerRecord, error)

	// ListFlagged returns up to limit flagged records, newest first
	ListFlagged(ctx context.Context, limit int) ([]*domain.AnswerRecord, error)

	Ping(ctx context.Context) error
}
