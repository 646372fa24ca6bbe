package driving

import (
	"context"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// FeedbackService lets guests rate or flag a delivered answer
type FeedbackService interface {
	// Rate scores an answer from 0 to domain.MaxRating. A 0 flags it too.
	Rate(ctx context.Context, answerID string, rating int) (*domain.AnswerRecord, error)

	// Flag marks an answer for staff review
	Flag(ctx context.Context, answerID, reason string) (*domain.AnswerRecord, error)

	// Flagged lists answers awaiting review, newest first
	Flagged(ctx context.Context, limit int) ([]*domain.AnswerRecord, error)
}
