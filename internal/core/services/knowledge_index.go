package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-concierge/internal/runtime"
)

const tracerName = "github.com/custodia-labs/sercha-concierge/internal/core/services"

// fallbackDimensions is used for zero vectors when the embedder reports no dimension
const fallbackDimensions = 384

// Ensure KnowledgeIndex implements IndexService
var _ driving.IndexService = (*KnowledgeIndex)(nil)

// KnowledgeIndexConfig holds configuration for the knowledge index
type KnowledgeIndexConfig struct {
	// SeedStore caches embeddings between builds. Optional.
	SeedStore driven.SeedStore
	// Source provides the knowledge base for Rebuild. Optional.
	Source driven.KnowledgeSource
	// BatchSize caps the number of texts sent to the embedder in one call
	BatchSize int
	// ExtraEntities are added to the entity vocabulary used by the validator
	ExtraEntities []string
	Logger        *slog.Logger
}

// DefaultKnowledgeIndexConfig returns sensible defaults
func DefaultKnowledgeIndexConfig() KnowledgeIndexConfig {
	return KnowledgeIndexConfig{
		BatchSize: 64,
	}
}

// indexSnapshot is an immutable, fully built index
type indexSnapshot struct {
	chunks   []*domain.KbChunk
	entities []string
	business string
	stats    domain.IndexStats
}

// KnowledgeIndex owns the embedded KB chunks and answers vector searches.
// Builds are serialised and publish a new snapshot on completion; searches
// read whichever snapshot is current and never observe a partial build.
type KnowledgeIndex struct {
	services *runtime.Services
	config   KnowledgeIndexConfig
	logger   *slog.Logger

	buildMu  sync.Mutex
	snapshot atomic.Pointer[indexSnapshot]
	version  atomic.Uint64
}

// NewKnowledgeIndex creates an empty index.
// The embedder is resolved dynamically via runtime.Services.
func NewKnowledgeIndex(services *runtime.Services, cfg KnowledgeIndexConfig) *KnowledgeIndex {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultKnowledgeIndexConfig().BatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &KnowledgeIndex{
		services: services,
		config:   cfg,
		logger:   logger.With("component", "knowledge_index"),
	}
}

// Rebuild reloads the knowledge base from the configured source and builds it
func (k *KnowledgeIndex) Rebuild(ctx context.Context) (*domain.IndexStats, error) {
	if k.config.Source == nil {
		return nil, fmt.Errorf("knowledge source: %w", domain.ErrServiceUnavailable)
	}

	kb, err := k.config.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base from %s: %w", k.config.Source.Location(), err)
	}
	return k.Build(ctx, kb)
}

// Build embeds the chunks of kb and atomically replaces the current snapshot.
// A chunk that cannot be embedded gets a zero vector and is counted as failed.
// Cancellation aborts the build and leaves the previous snapshot in place.
func (k *KnowledgeIndex) Build(ctx context.Context, kb *domain.KnowledgeBase) (*domain.IndexStats, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "KnowledgeIndex.Build")
	defer span.End()

	k.buildMu.Lock()
	defer k.buildMu.Unlock()

	start := time.Now()
	if kb == nil {
		kb = &domain.KnowledgeBase{}
	}

	embedder := k.services.EmbeddingService()
	if embedder == nil {
		return nil, &domain.AdapterError{Adapter: "embedder", Err: domain.ErrServiceUnavailable}
	}

	chunks := BuildChunks(kb)
	model := embedder.Model()
	dims := embedder.Dimensions()

	cached := k.loadSeeds(ctx)

	var pending []*domain.KbChunk
	cachedCount := 0
	for _, chunk := range chunks {
		if rec, ok := cached[chunk.ID]; ok && rec.Model == model && rec.ContentHash == ContentHash(chunk) &&
			len(rec.Embedding) > 0 && (dims == 0 || len(rec.Embedding) == dims) {
			chunk.Embedding = rec.Embedding
			cachedCount++
			continue
		}
		pending = append(pending, chunk)
	}

	failed, err := k.embedChunks(ctx, embedder, pending)
	if err != nil {
		return nil, err
	}

	if dims == 0 {
		dims = observedDimensions(chunks)
	}
	for _, chunk := range failed {
		chunk.Embedding = make([]float32, dims)
	}

	k.storeSeeds(ctx, pending, failed, model, chunks)

	stats := domain.IndexStats{
		Chunks:       len(chunks),
		FailedChunks: len(failed),
		CachedChunks: cachedCount,
		Dimensions:   dims,
		Model:        model,
		BuiltAt:      time.Now(),
		Took:         time.Since(start),
		Version:      k.version.Add(1),
	}

	entities := kb.EntityNames()
	entities = append(entities, k.config.ExtraEntities...)

	k.snapshot.Store(&indexSnapshot{
		chunks:   chunks,
		entities: entities,
		business: kb.Business.Name,
		stats:    stats,
	})

	span.SetAttributes(
		attribute.Int("index.chunks", stats.Chunks),
		attribute.Int("index.failed_chunks", stats.FailedChunks),
	)
	k.logger.Info("knowledge index built",
		"chunks", stats.Chunks,
		"failed", stats.FailedChunks,
		"cached", stats.CachedChunks,
		"dimensions", stats.Dimensions,
		"version", stats.Version,
		"duration", stats.Took,
	)

	out := stats
	return &out, nil
}

// embedChunks fills Embedding on each chunk and returns the chunks that failed.
// Batches are tried first; a failed batch is retried one chunk at a time.
func (k *KnowledgeIndex) embedChunks(ctx context.Context, embedder driven.EmbeddingService, chunks []*domain.KbChunk) ([]*domain.KbChunk, error) {
	var failed []*domain.KbChunk

	for start := 0; start < len(chunks); start += k.config.BatchSize {
		end := min(start+k.config.BatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err == nil && len(vectors) == len(batch) {
			for i, chunk := range batch {
				chunk.Embedding = vectors[i]
			}
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			err = fmt.Errorf("expected %d embeddings, got %d", len(batch), len(vectors))
		}
		k.logger.Warn("batch embedding failed, retrying per chunk", "size", len(batch), "error", err)

		for _, chunk := range batch {
			vectors, err := embedder.Embed(ctx, []string{chunk.Text})
			if err == nil && len(vectors) == 1 && len(vectors[0]) > 0 {
				chunk.Embedding = vectors[0]
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			k.logger.Warn("chunk embedding failed, using zero vector",
				"chunk_id", chunk.ID,
				"source_path", chunk.Metadata.SourcePath,
				"error", err,
			)
			failed = append(failed, chunk)
		}
	}

	return failed, nil
}

func (k *KnowledgeIndex) loadSeeds(ctx context.Context) map[string]*domain.SeedRecord {
	if k.config.SeedStore == nil {
		return nil
	}
	records, err := k.config.SeedStore.GetAll(ctx)
	if err != nil {
		k.logger.Warn("failed to load seed records", "error", err)
		return nil
	}
	return records
}

// storeSeeds writes freshly embedded chunks back and prunes records for
// chunks that no longer exist. Zero-vector fallbacks are never persisted.
func (k *KnowledgeIndex) storeSeeds(ctx context.Context, embedded, failed []*domain.KbChunk, model string, all []*domain.KbChunk) {
	if k.config.SeedStore == nil {
		return
	}

	skip := make(map[string]struct{}, len(failed))
	for _, chunk := range failed {
		skip[chunk.ID] = struct{}{}
	}

	now := time.Now()
	records := make([]*domain.SeedRecord, 0, len(embedded))
	for _, chunk := range embedded {
		if _, ok := skip[chunk.ID]; ok {
			continue
		}
		records = append(records, &domain.SeedRecord{
			ChunkID:      chunk.ID,
			QuestionText: chunk.Text,
			AnswerText:   chunk.AnswerText,
			Embedding:    chunk.Embedding,
			Metadata:     chunk.Metadata,
			Model:        model,
			ContentHash:  ContentHash(chunk),
			UpdatedAt:    now,
		})
	}

	if len(records) > 0 {
		if err := k.config.SeedStore.SaveBatch(ctx, records); err != nil {
			k.logger.Warn("failed to save seed records", "count", len(records), "error", err)
		}
	}

	keep := make([]string, len(all))
	for i, chunk := range all {
		keep[i] = chunk.ID
	}
	if removed, err := k.config.SeedStore.Prune(ctx, keep); err != nil {
		k.logger.Warn("failed to prune seed records", "error", err)
	} else if removed > 0 {
		k.logger.Debug("pruned stale seed records", "count", removed)
	}
}

func observedDimensions(chunks []*domain.KbChunk) int {
	for _, chunk := range chunks {
		if len(chunk.Embedding) > 0 {
			return len(chunk.Embedding)
		}
	}
	return fallbackDimensions
}

// Search embeds the query once and ranks every chunk by cosine similarity.
// Results are filtered by MinScore, sorted by descending score with ties in
// insertion order, and capped at TopK. An index with no chunks returns an
// empty result together with an IndexNotReadyError.
func (k *KnowledgeIndex) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "KnowledgeIndex.Search")
	defer span.End()

	snap := k.snapshot.Load()
	if snap == nil || len(snap.chunks) == 0 {
		return []domain.SearchResult{}, &domain.IndexNotReadyError{}
	}

	opts = opts.Normalize()

	embedder := k.services.EmbeddingService()
	if embedder == nil {
		return nil, &domain.AdapterError{Adapter: "embedder", Err: domain.ErrServiceUnavailable}
	}

	queryVec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &domain.AdapterError{Adapter: "embedder", Err: err}
	}

	results := make([]domain.SearchResult, 0, len(snap.chunks))
	for _, chunk := range snap.chunks {
		score := CosineSimilarity(queryVec, chunk.Embedding)
		if score < opts.MinScore {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}

	span.SetAttributes(attribute.Int("search.results", len(results)))
	return results, nil
}

// Stats returns a copy of the current build stats, or nil before the first build
func (k *KnowledgeIndex) Stats() *domain.IndexStats {
	snap := k.snapshot.Load()
	if snap == nil {
		return nil
	}
	stats := snap.stats
	return &stats
}

// Ready reports whether a non-empty index has been published
func (k *KnowledgeIndex) Ready() bool {
	snap := k.snapshot.Load()
	return snap != nil && len(snap.chunks) > 0
}

// Entities returns the entity vocabulary of the current snapshot
func (k *KnowledgeIndex) Entities() []string {
	snap := k.snapshot.Load()
	if snap == nil {
		return append([]string(nil), k.config.ExtraEntities...)
	}
	return append([]string(nil), snap.entities...)
}

// BusinessName returns the business name of the current snapshot
func (k *KnowledgeIndex) BusinessName() string {
	snap := k.snapshot.Load()
	if snap == nil {
		return ""
	}
	return snap.business
}

// IsNotReady reports whether err means the index has not been built
func IsNotReady(err error) bool {
	return errors.Is(err, domain.ErrIndexNotReady)
}
