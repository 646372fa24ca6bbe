package driving

import (
	"context"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// AnswerService answers one user turn
type AnswerService interface {
	// Answer always returns a well-formed envelope. The error is non-nil when
	// the envelope carries an error source, and wraps one of the domain errors.
	Answer(ctx context.Context, req *domain.AnswerRequest) (*domain.AnswerEnvelope, error)
}
