package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FeedbackStore = (*FeedbackStore)(nil)

const feedbackSchema = `
CREATE TABLE IF NOT EXISTS answers (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL DEFAULT '',
	question        TEXT NOT NULL,
	answer          TEXT NOT NULL,
	source          TEXT NOT NULL,
	provenance_ref  TEXT NOT NULL DEFAULT '',
	rating          INTEGER,
	flagged         INTEGER NOT NULL DEFAULT 0,
	flag_reason     TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS answers_flagged ON answers (flagged, created_at);
`

const answerColumns = `id, conversation_id, question, answer, source, provenance_ref,
	rating, flagged, flag_reason, created_at, updated_at`

// FeedbackStore implements driven.FeedbackStore on a SQLite database file.
// Answers are kept until deleted by hand.
type FeedbackStore struct {
	db *sql.DB
}

// NewFeedbackStore opens (creating if needed) the database at path.
// Use ":memory:" for an ephemeral store.
func NewFeedbackStore(path string) (*FeedbackStore, error) {
	if path == "" {
		path = "./data/feedback.db"
	}
	db, err := open(path, feedbackSchema)
	if err != nil {
		return nil, err
	}
	return &FeedbackStore{db: db}, nil
}

// Save inserts or replaces the record
func (s *FeedbackStore) Save(ctx context.Context, rec *domain.AnswerRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("%w: answer record needs an id", domain.ErrInvalidInput)
	}

	var rating sql.NullInt64
	if rec.Rating != nil {
		rating = sql.NullInt64{Int64: int64(*rec.Rating), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO answers (`+answerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.ConversationID,
		rec.Question,
		rec.Answer,
		string(rec.Source),
		rec.ProvenanceRef,
		rating,
		rec.Flagged,
		rec.FlagReason,
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving answer %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves one answer
func (s *FeedbackStore) Get(ctx context.Context, id string) (*domain.AnswerRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = ?`, id)
	rec, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading answer %s: %w", id, err)
	}
	return rec, nil
}

// ListFlagged returns flagged answers, newest first
func (s *FeedbackStore) ListFlagged(ctx context.Context, limit int) ([]*domain.AnswerRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+answerColumns+`
		FROM answers
		WHERE flagged = 1
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying flagged answers: %w", err)
	}
	defer rows.Close()

	var records []*domain.AnswerRecord
	for rows.Next() {
		rec, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return records, nil
}

// Ping checks the database file is usable
func (s *FeedbackStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *FeedbackStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(row rowScanner) (*domain.AnswerRecord, error) {
	var (
		rec    domain.AnswerRecord
		source string
		rating sql.NullInt64
	)
	if err := row.Scan(
		&rec.ID,
		&rec.ConversationID,
		&rec.Question,
		&rec.Answer,
		&source,
		&rec.ProvenanceRef,
		&rating,
		&rec.Flagged,
		&rec.FlagReason,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Source = domain.Source(source)
	if rating.Valid {
		r := int(rating.Int64)
		rec.Rating = &r
	}
	return &rec, nil
}
