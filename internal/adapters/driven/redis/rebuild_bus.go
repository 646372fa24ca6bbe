package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.RebuildBus = (*RebuildBus)(nil)

// RebuildChannel is the pub/sub channel rebuild requests are published on
const RebuildChannel = "concierge:index:rebuild"

// RebuildBus implements driven.RebuildBus with Redis pub/sub.
// Delivery is at-most-once; an instance that is down misses the broadcast
// and rebuilds from the knowledge source on its next start anyway.
type RebuildBus struct {
	client *redis.Client
	logger *slog.Logger

	mu   sync.Mutex
	subs []*redis.PubSub
}

// NewRebuildBus creates a new Redis-backed RebuildBus
func NewRebuildBus(client *redis.Client, logger *slog.Logger) *RebuildBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RebuildBus{client: client, logger: logger.With("component", "rebuild_bus")}
}

// Publish broadcasts a rebuild request
func (b *RebuildBus) Publish(ctx context.Context, req *domain.RebuildRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal rebuild request: %w", err)
	}
	if err := b.client.Publish(ctx, RebuildChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish rebuild request: %w", err)
	}
	return nil
}

// Subscribe delivers requests until ctx is done. The subscription is
// confirmed before Subscribe returns, so nothing published afterwards is missed.
func (b *RebuildBus) Subscribe(ctx context.Context) (<-chan *domain.RebuildRequest, error) {
	pubsub := b.client.Subscribe(ctx, RebuildChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", RebuildChannel, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, pubsub)
	b.mu.Unlock()

	out := make(chan *domain.RebuildRequest, 8)
	go func() {
		defer close(out)
		defer b.remove(pubsub)

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var req domain.RebuildRequest
				if err := json.Unmarshal([]byte(msg.Payload), &req); err != nil {
					b.logger.Warn("dropping malformed rebuild request", "error", err)
					continue
				}

				select {
				case out <- &req:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (b *RebuildBus) remove(pubsub *redis.PubSub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == pubsub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	_ = pubsub.Close()
}

// Close ends every open subscription
func (b *RebuildBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	var firstErr error
	for _, s := range subs {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
