package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SeedStore = (*SeedStore)(nil)

// SeedStore implements driven.SeedStore using PostgreSQL with pgvector
type SeedStore struct {
	db *DB
}

// NewSeedStore creates a new SeedStore
func NewSeedStore(db *DB) *SeedStore {
	return &SeedStore{db: db}
}

const upsertSeedRecord = `
	INSERT INTO seed_records (chunk_id, question_text, answer_text, embedding, metadata, model, content_hash, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	ON CONFLICT (chunk_id) DO UPDATE SET
		question_text = EXCLUDED.question_text,
		answer_text = EXCLUDED.answer_text,
		embedding = EXCLUDED.embedding,
		metadata = EXCLUDED.metadata,
		model = EXCLUDED.model,
		content_hash = EXCLUDED.content_hash,
		updated_at = NOW()
`

// GetAll returns every stored record keyed by chunk ID
func (s *SeedStore) GetAll(ctx context.Context) (map[string]*domain.SeedRecord, error) {
	query := `
		SELECT chunk_id, question_text, answer_text, embedding, metadata, model, content_hash, updated_at
		FROM seed_records
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query seed records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*domain.SeedRecord)
	for rows.Next() {
		var (
			rec      domain.SeedRecord
			vec      pgvector.Vector
			metadata []byte
		)
		if err := rows.Scan(
			&rec.ChunkID,
			&rec.QuestionText,
			&rec.AnswerText,
			&vec,
			&metadata,
			&rec.Model,
			&rec.ContentHash,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan seed record: %w", err)
		}

		rec.Embedding = vec.Slice()
		if rec.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, fmt.Errorf("seed record %s: %w", rec.ChunkID, err)
		}
		records[rec.ChunkID] = &rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate seed records: %w", err)
	}

	return records, nil
}

// SaveBatch upserts records in a single transaction
func (s *SeedStore) SaveBatch(ctx context.Context, records []*domain.SeedRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertSeedRecord)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			metadata, err := encodeMetadata(rec.Metadata)
			if err != nil {
				return fmt.Errorf("seed record %s: %w", rec.ChunkID, err)
			}

			if _, err := stmt.ExecContext(ctx,
				rec.ChunkID,
				rec.QuestionText,
				rec.AnswerText,
				pgvector.NewVector(rec.Embedding),
				metadata,
				rec.Model,
				rec.ContentHash,
			); err != nil {
				return fmt.Errorf("failed to upsert seed record %s: %w", rec.ChunkID, err)
			}
		}

		return nil
	})
}

// Prune deletes records whose chunk ID is not in keep
func (s *SeedStore) Prune(ctx context.Context, keep []string) (int, error) {
	if keep == nil {
		keep = []string{}
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM seed_records WHERE NOT (chunk_id = ANY($1))`,
		pq.Array(keep),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune seed records: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned records: %w", err)
	}
	return int(n), nil
}

// Ping checks if the database is reachable
func (s *SeedStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection
func (s *SeedStore) Close() error {
	return s.db.Close()
}

func encodeMetadata(m domain.ChunkMetadata) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

func decodeMetadata(data []byte) (domain.ChunkMetadata, error) {
	var m domain.ChunkMetadata
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return m, nil
}
