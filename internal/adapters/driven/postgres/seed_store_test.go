package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

func TestMetadataRoundTrip(t *testing.T) {
	in := domain.ChunkMetadata{
		Kind:       "menu_item",
		SourcePath: "menu.mains[0]",
		Category:   "mains",
		Entity:     "Momos",
		Extra:      map[string]string{"price": "9.50"},
	}

	data, err := encodeMetadata(in)
	if err != nil {
		t.Fatalf("encodeMetadata() error = %v", err)
	}

	out, err := decodeMetadata(data)
	if err != nil {
		t.Fatalf("decodeMetadata() error = %v", err)
	}

	if out.Entity != in.Entity || out.Kind != in.Kind || out.Extra["price"] != "9.50" {
		t.Errorf("decodeMetadata() = %+v, want %+v", out, in)
	}
}

func TestDecodeMetadata_Empty(t *testing.T) {
	m, err := decodeMetadata(nil)
	if err != nil {
		t.Fatalf("decodeMetadata(nil) error = %v", err)
	}
	if m.Kind != "" {
		t.Errorf("expected zero metadata, got %+v", m)
	}
}

func TestDecodeMetadata_Invalid(t *testing.T) {
	if _, err := decodeMetadata([]byte("{not json")); err == nil {
		t.Error("expected error for malformed metadata")
	}
}

// setupTestDB connects to CONCIERGE_TEST_POSTGRES_URL or skips the test.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("CONCIERGE_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("CONCIERGE_TEST_POSTGRES_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, DefaultConfig(url))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		t.Fatalf("InitSchema() error = %v", err)
	}
	if _, err := db.ExecContext(ctx, "TRUNCATE seed_records"); err != nil {
		db.Close()
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func TestSeedStore_Integration(t *testing.T) {
	db := setupTestDB(t)
	store := NewSeedStore(db)
	defer store.Close()
	ctx := context.Background()

	records := []*domain.SeedRecord{
		{ChunkID: "a", QuestionText: "q a", AnswerText: "ans a", Embedding: []float32{1, 0, 0}, Model: "m", ContentHash: "h1"},
		{ChunkID: "b", QuestionText: "q b", AnswerText: "ans b", Embedding: []float32{0, 1, 0}, Model: "m", ContentHash: "h2",
			Metadata: domain.ChunkMetadata{Entity: "Momos"}},
	}
	if err := store.SaveBatch(ctx, records); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetAll() returned %d records, want 2", len(got))
	}
	if got["b"].Metadata.Entity != "Momos" {
		t.Errorf("metadata entity = %q, want Momos", got["b"].Metadata.Entity)
	}
	if len(got["a"].Embedding) != 3 || got["a"].Embedding[0] != 1 {
		t.Errorf("embedding = %v, want [1 0 0]", got["a"].Embedding)
	}

	removed, err := store.Prune(ctx, []string{"a"})
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Prune() removed %d, want 1", removed)
	}
}

func TestAdvisoryLock_Integration(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	first := NewAdvisoryLock(db)
	second := NewAdvisoryLock(db)

	ok, err := first.Acquire(ctx, "index-rebuild", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first Acquire() = %v, %v; want true, nil", ok, err)
	}

	ok, err = second.Acquire(ctx, "index-rebuild", time.Minute)
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	if ok {
		t.Error("second Acquire() succeeded while lock held")
	}

	if err := first.Release(ctx, "index-rebuild"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	ok, err = second.Acquire(ctx, "index-rebuild", time.Minute)
	if err != nil || !ok {
		t.Errorf("Acquire() after release = %v, %v; want true, nil", ok, err)
	}
	_ = second.Release(ctx, "index-rebuild")
}
