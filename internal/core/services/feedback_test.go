package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven/mocks"
)

var feedbackNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFeedbackHarness(t *testing.T) (*feedbackService, *mocks.MockFeedbackStore) {
	t.Helper()
	store := mocks.NewMockFeedbackStore()
	require.NoError(t, store.Save(context.Background(), &domain.AnswerRecord{
		ID:            "a-1",
		Question:      "what are momos",
		Answer:        "Momos: steamed dumplings",
		Source:        domain.SourceKb,
		ProvenanceRef: "menu.categories.dumplings[0]",
		CreatedAt:     feedbackNow.Add(-time.Minute),
	}))
	svc := NewFeedbackService(store, FeedbackServiceConfig{
		Logger: discardLogger(),
		Now:    func() time.Time { return feedbackNow },
	})
	return svc.(*feedbackService), store
}

func TestFeedback_Rate(t *testing.T) {
	svc, store := newFeedbackHarness(t)

	rec, err := svc.Rate(context.Background(), "a-1", 4)
	require.NoError(t, err)
	require.NotNil(t, rec.Rating)
	assert.Equal(t, 4, *rec.Rating)
	assert.False(t, rec.Flagged)
	assert.Equal(t, feedbackNow, rec.UpdatedAt)

	stored, err := store.Get(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, 4, *stored.Rating)
}

func TestFeedback_ZeroRatingFlags(t *testing.T) {
	svc, _ := newFeedbackHarness(t)

	rec, err := svc.Rate(context.Background(), "a-1", 0)
	require.NoError(t, err)
	assert.True(t, rec.Flagged)
	assert.NotEmpty(t, rec.FlagReason)

	flagged, err := svc.Flagged(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, "menu.categories.dumplings[0]", flagged[0].ProvenanceRef)
}

func TestFeedback_RateValidation(t *testing.T) {
	svc, _ := newFeedbackHarness(t)

	testCases := []struct {
		name    string
		id      string
		rating  int
		wantErr error
	}{
		{"too high", "a-1", 6, domain.ErrInvalidInput},
		{"negative", "a-1", -1, domain.ErrInvalidInput},
		{"missing id", "  ", 3, domain.ErrInvalidInput},
		{"unknown answer", "nope", 3, domain.ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Rate(context.Background(), tc.id, tc.rating)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
		})
	}
}

func TestFeedback_Flag(t *testing.T) {
	svc, _ := newFeedbackHarness(t)

	rec, err := svc.Flag(context.Background(), "a-1", "  ")
	require.NoError(t, err)
	assert.True(t, rec.Flagged)
	assert.Equal(t, domain.DefaultFlagReason, rec.FlagReason)

	rec, err = svc.Flag(context.Background(), "a-1", "wrong price")
	require.NoError(t, err)
	assert.Equal(t, "wrong price", rec.FlagReason)

	_, err = svc.Flag(context.Background(), "missing", "")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFeedback_ConcurrentRateAndFlagKeepBoth(t *testing.T) {
	svc, store := newFeedbackHarness(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Rate(context.Background(), "a-1", 3)
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			_, err := svc.Flag(context.Background(), "a-1", fmt.Sprintf("reason %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	rec, err := store.Get(context.Background(), "a-1")
	require.NoError(t, err)
	require.NotNil(t, rec.Rating)
	assert.Equal(t, 3, *rec.Rating)
	assert.True(t, rec.Flagged)
}

func TestFeedback_Disabled(t *testing.T) {
	svc := NewFeedbackService(nil, FeedbackServiceConfig{Logger: discardLogger()})

	_, err := svc.Rate(context.Background(), "a-1", 3)
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	_, err = svc.Flag(context.Background(), "a-1", "")
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
	_, err = svc.Flagged(context.Background(), 10)
	assert.True(t, errors.Is(err, domain.ErrServiceUnavailable))
}

func TestFeedback_SaveFailure(t *testing.T) {
	svc, store := newFeedbackHarness(t)
	store.SaveFn = func(*domain.AnswerRecord) error { return errors.New("disk full") }

	_, err := svc.Rate(context.Background(), "a-1", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
