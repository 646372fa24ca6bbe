package driven

import (
	"context"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// RebuildBus fans rebuild requests out to every running instance.
// Each instance owns its own in-memory index, so a rebuild triggered on one
// instance must reach all of them.
type RebuildBus interface {
	// Publish broadcasts a rebuild request
	Publish(ctx context.Context, req *domain.RebuildRequest) error

	// Subscribe delivers requests published by any instance until ctx is done.
	// The returned channel is closed when the subscription ends.
	Subscribe(ctx context.Context) (<-chan *domain.RebuildRequest, error)

	// Close releases the subscription
	Close() error
}
