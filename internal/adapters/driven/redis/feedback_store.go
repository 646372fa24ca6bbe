package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FeedbackStore = (*FeedbackStore)(nil)

const (
	answerPrefix      = "concierge:answer:"
	flaggedAnswersKey = "concierge:answers:flagged"
)

// DefaultFeedbackTTL is how long a delivered answer stays rateable
const DefaultFeedbackTTL = 30 * 24 * time.Hour

// FeedbackStore implements driven.FeedbackStore using Redis.
// Each answer is a JSON value; flagged answers are also indexed in a sorted
// set scored by creation time.
type FeedbackStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedbackStore creates a Redis-backed FeedbackStore.
// A non-positive ttl falls back to DefaultFeedbackTTL.
func NewFeedbackStore(client *redis.Client, ttl time.Duration) *FeedbackStore {
	if ttl <= 0 {
		ttl = DefaultFeedbackTTL
	}
	return &FeedbackStore{client: client, ttl: ttl}
}

// Save writes the record and keeps the flagged index in step
func (s *FeedbackStore) Save(ctx context.Context, record *domain.AnswerRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("%w: answer record needs an id", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, answerPrefix+record.ID, data, s.ttl)
		if record.Flagged {
			pipe.ZAdd(ctx, flaggedAnswersKey, redis.Z{
				Score:  float64(record.CreatedAt.UnixMilli()),
				Member: record.ID,
			})
		} else {
			pipe.ZRem(ctx, flaggedAnswersKey, record.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// Get retrieves one answer
func (s *FeedbackStore) Get(ctx context.Context, id string) (*domain.AnswerRecord, error) {
	data, err := s.client.Get(ctx, answerPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	var rec domain.AnswerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answer: %w", err)
	}
	return &rec, nil
}

// ListFlagged returns flagged answers, newest first. Index entries whose
// answer has expired are pruned on the way.
func (s *FeedbackStore) ListFlagged(ctx context.Context, limit int) ([]*domain.AnswerRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := s.client.ZRevRange(ctx, flaggedAnswersKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged answers: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = answerPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load flagged answers: %w", err)
	}

	records := make([]*domain.AnswerRecord, 0, len(values))
	var stale []interface{}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var rec domain.AnswerRecord
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answer %s: %w", ids[i], err)
		}
		records = append(records, &rec)
	}
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, flaggedAnswersKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune flagged answers: %w", err)
		}
	}
	return records, nil
}

// Ping checks if the Redis backend is healthy
func (s *FeedbackStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
