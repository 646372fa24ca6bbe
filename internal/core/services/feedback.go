package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driving"
)

// Ensure feedbackService implements FeedbackService
var _ driving.FeedbackService = (*feedbackService)(nil)

const (
	// DefaultFlaggedLimit is the page size when no limit is given
	DefaultFlaggedLimit = 50
	maxFlaggedLimit     = 500
)

// FeedbackServiceConfig holds configuration for the feedback service
type FeedbackServiceConfig struct {
	Logger *slog.Logger
	// Now defaults to time.Now; tests pin it
	Now func() time.Time
}

type feedbackService struct {
	store  driven.FeedbackStore
	locks  *KeyedMutex
	now    func() time.Time
	logger *slog.Logger
}

// NewFeedbackService creates the feedback service. A nil store leaves
// feedback disabled; every call then fails with ErrServiceUnavailable.
func NewFeedbackService(store driven.FeedbackStore, cfg FeedbackServiceConfig) driving.FeedbackService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &feedbackService{
		store:  store,
		locks:  NewKeyedMutex(),
		now:    now,
		logger: logger.With("component", "feedback"),
	}
}

// Rate scores an answer from 0 to MaxRating
func (s *feedbackService) Rate(ctx context.Context, answerID string, rating int) (*domain.AnswerRecord, error) {
	if rating < 0 || rating > domain.MaxRating {
		return nil, &domain.InputError{Reason: fmt.Sprintf("rating must be between 0 and %d", domain.MaxRating)}
	}
	return s.update(ctx, answerID, func(rec *domain.AnswerRecord) {
		rec.ApplyRating(rating, s.now().UTC())
	})
}

// Flag marks an answer for review
func (s *feedbackService) Flag(ctx context.Context, answerID, reason string) (*domain.AnswerRecord, error) {
	reason = strings.TrimSpace(reason)
	return s.update(ctx, answerID, func(rec *domain.AnswerRecord) {
		rec.ApplyFlag(reason, s.now().UTC())
	})
}

// Flagged lists flagged answers, newest first
func (s *feedbackService) Flagged(ctx context.Context, limit int) ([]*domain.AnswerRecord, error) {
	if s.store == nil {
		return nil, domain.ErrServiceUnavailable
	}
	if limit <= 0 {
		limit = DefaultFlaggedLimit
	}
	limit = min(limit, maxFlaggedLimit)

	records, err := s.store.ListFlagged(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list flagged answers: %w", err)
	}
	return records, nil
}

// update applies fn to the stored record under a per-answer lock so a
// concurrent rate and flag cannot overwrite each other
func (s *feedbackService) update(ctx context.Context, answerID string, fn func(*domain.AnswerRecord)) (*domain.AnswerRecord, error) {
	if s.store == nil {
		return nil, domain.ErrServiceUnavailable
	}
	answerID = strings.TrimSpace(answerID)
	if answerID == "" {
		return nil, &domain.InputError{Reason: "answer id is required"}
	}

	release, err := s.locks.Lock(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	defer release()

	rec, err := s.store.Get(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("answer %s: %w", answerID, err)
	}

	wasFlagged := rec.Flagged
	fn(rec)
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save feedback for %s: %w", answerID, err)
	}

	if rec.Flagged && !wasFlagged {
		s.logger.Warn("answer flagged for review",
			"answer_id", rec.ID,
			"source", rec.Source,
			"provenance_ref", rec.ProvenanceRef,
			"reason", rec.FlagReason,
		)
	}
	return rec, nil
}
