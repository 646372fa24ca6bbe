// Package sqlite provides file-backed seed record and feedback stores for
// single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SeedStore = (*SeedStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS seed_records (
	chunk_id      TEXT PRIMARY KEY,
	question_text TEXT NOT NULL,
	answer_text   TEXT NOT NULL,
	embedding     BLOB NOT NULL,
	metadata      TEXT NOT NULL DEFAULT '{}',
	model         TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	updated_at    DATETIME NOT NULL
);
`

// SeedStore implements driven.SeedStore on a SQLite database file.
// Embeddings and metadata are stored as JSON.
type SeedStore struct {
	db   *sql.DB
	path string
}

// NewSeedStore opens (creating if needed) the database at path.
// Use ":memory:" for an ephemeral store.
func NewSeedStore(path string) (*SeedStore, error) {
	if path == "" {
		path = "./data/seed.db"
	}
	db, err := open(path, schema)
	if err != nil {
		return nil, err
	}
	return &SeedStore{db: db, path: path}, nil
}

// GetAll returns every stored record keyed by chunk ID
func (s *SeedStore) GetAll(ctx context.Context) (map[string]*domain.SeedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, question_text, answer_text, embedding, metadata, model, content_hash, updated_at
		FROM seed_records
	`)
	if err != nil {
		return nil, fmt.Errorf("querying seed records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*domain.SeedRecord)
	for rows.Next() {
		var (
			rec       domain.SeedRecord
			embedding []byte
			metadata  string
		)
		if err := rows.Scan(
			&rec.ChunkID,
			&rec.QuestionText,
			&rec.AnswerText,
			&embedding,
			&metadata,
			&rec.Model,
			&rec.ContentHash,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if err := json.Unmarshal(embedding, &rec.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", rec.ChunkID, err)
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decoding metadata for %s: %w", rec.ChunkID, err)
			}
		}
		records[rec.ChunkID] = &rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return records, nil
}

// SaveBatch upserts records in a single transaction
func (s *SeedStore) SaveBatch(ctx context.Context, records []*domain.SeedRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO seed_records
			(chunk_id, question_text, answer_text, embedding, metadata, model, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		embedding, err := json.Marshal(rec.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding for %s: %w", rec.ChunkID, err)
		}
		metadata, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for %s: %w", rec.ChunkID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			rec.ChunkID,
			rec.QuestionText,
			rec.AnswerText,
			embedding,
			string(metadata),
			rec.Model,
			rec.ContentHash,
			now,
		); err != nil {
			return fmt.Errorf("upserting %s: %w", rec.ChunkID, err)
		}
	}

	return tx.Commit()
}

// Prune deletes records whose chunk ID is not in keep
func (s *SeedStore) Prune(ctx context.Context, keep []string) (int, error) {
	query := "DELETE FROM seed_records"
	args := make([]any, len(keep))
	if len(keep) > 0 {
		placeholders := make([]string, len(keep))
		for i, id := range keep {
			placeholders[i] = "?"
			args[i] = id
		}
		query += " WHERE chunk_id NOT IN (" + strings.Join(placeholders, ",") + ")"
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("pruning seed records: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned records: %w", err)
	}
	return int(n), nil
}

// Ping checks the database file is usable
func (s *SeedStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SeedStore) Close() error {
	return s.db.Close()
}
