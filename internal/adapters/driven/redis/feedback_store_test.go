package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

func testAnswer(id string, created time.Time) *domain.AnswerRecord {
	return &domain.AnswerRecord{
		ID:            id,
		Question:      "what are momos",
		Answer:        "Momos: steamed dumplings",
		Source:        domain.SourceKb,
		ProvenanceRef: "chunk-1",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestFeedbackStore_SaveAndGet(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewFeedbackStore(client, time.Hour)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := testAnswer("a-1", created)
	rec.ApplyRating(4, created)
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := mr.TTL("concierge:answer:a-1"); ttl != time.Hour {
		t.Errorf("expected TTL 1h, got %v", ttl)
	}

	got, err := store.Get(ctx, "a-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Rating == nil || *got.Rating != 4 {
		t.Errorf("expected rating 4, got %v", got.Rating)
	}
	if got.ProvenanceRef != "chunk-1" || !got.CreatedAt.Equal(created) {
		t.Errorf("unexpected record: %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, &domain.AnswerRecord{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for a record without id, got %v", err)
	}
}

func TestFeedbackStore_ListFlagged(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewFeedbackStore(client, 0)
	if store.ttl != DefaultFeedbackTTL {
		t.Errorf("expected default TTL, got %v", store.ttl)
	}
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new", "fine"} {
		rec := testAnswer(id, base.Add(time.Duration(i)*time.Minute))
		if id != "fine" {
			rec.ApplyFlag("", base)
		}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	flagged, err := store.ListFlagged(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flagged) != 2 || flagged[0].ID != "new" || flagged[1].ID != "old" {
		t.Fatalf("expected [new old], got %+v", flagged)
	}

	// unflagging removes the answer from the index
	rec, _ := store.Get(ctx, "new")
	rec.Flagged = false
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flagged, _ = store.ListFlagged(ctx, 10)
	if len(flagged) != 1 || flagged[0].ID != "old" {
		t.Errorf("expected [old], got %+v", flagged)
	}

	// expired answers are pruned from the index
	mr.Del("concierge:answer:old")
	flagged, err = store.ListFlagged(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flagged) != 0 {
		t.Errorf("expected no flagged answers, got %+v", flagged)
	}
	if members, _ := mr.ZMembers("concierge:answers:flagged"); len(members) != 0 {
		t.Errorf("expected pruned index, got %v", members)
	}

	if err := store.Ping(ctx); err != nil {
		t.Errorf("expected ping to pass, got %v", err)
	}
}
