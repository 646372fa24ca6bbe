package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driving"
)

// IndexWorker drains rebuild triggers and rebuilds the knowledge index serially.
// Triggers arriving while a rebuild is pending are coalesced into that rebuild.
type IndexWorker struct {
	index      driving.IndexService
	bus        driven.RebuildBus
	instanceID string
	logger     *slog.Logger

	pending chan *domain.RebuildRequest

	// Internal state
	mu        sync.RWMutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	lastErr   error
	lastRunAt time.Time
	rebuilds  int
	coalesced int
}

// IndexWorkerConfig holds configuration for the index worker.
type IndexWorkerConfig struct {
	Index driving.IndexService

	// Bus fans rebuilds out to other instances. Optional.
	Bus driven.RebuildBus

	// InstanceID tags published requests so an instance ignores its own broadcasts
	InstanceID string

	Logger *slog.Logger
}

// NewIndexWorker creates a new index worker.
func NewIndexWorker(cfg IndexWorkerConfig) *IndexWorker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &IndexWorker{
		index:      cfg.Index,
		bus:        cfg.Bus,
		instanceID: cfg.InstanceID,
		logger:     logger.With("component", "index_worker"),
		pending:    make(chan *domain.RebuildRequest, 1),
	}
}

// Start begins the worker loop and, when a bus is configured, the subscription.
// It runs until Stop is called or context is cancelled.
func (w *IndexWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	var updates <-chan *domain.RebuildRequest
	if w.bus != nil {
		ch, err := w.bus.Subscribe(ctx)
		if err != nil {
			w.mu.Unlock()
			return fmt.Errorf("subscribe to rebuild bus: %w", err)
		}
		updates = ch
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("index worker starting", "bus", w.bus != nil, "instance_id", w.instanceID)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processLoop(ctx)
	}()

	if updates != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.listen(ctx, updates)
		}()
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker. A rebuild in progress is allowed to finish.
func (w *IndexWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("index worker stopped")
}

// Wait blocks until the worker stops.
func (w *IndexWorker) Wait() {
	w.mu.RLock()
	done := w.doneCh
	w.mu.RUnlock()
	if done != nil {
		<-done
	}
}

// Trigger queues an asynchronous rebuild. It never blocks: if a rebuild is
// already pending the request is folded into it and false is returned.
func (w *IndexWorker) Trigger(req *domain.RebuildRequest) bool {
	if req == nil {
		req = domain.NewRebuildRequest(domain.RebuildReasonAPI, w.instanceID)
	}

	select {
	case w.pending <- req:
		w.logger.Debug("rebuild queued", "reason", req.Reason, "request_id", req.ID)
		return true
	default:
		w.mu.Lock()
		w.coalesced++
		w.mu.Unlock()
		w.logger.Debug("rebuild coalesced", "reason", req.Reason, "request_id", req.ID)
		return false
	}
}

// RebuildNow rebuilds synchronously and broadcasts the rebuild to the other instances.
func (w *IndexWorker) RebuildNow(ctx context.Context, reason domain.RebuildReason) (*domain.IndexStats, error) {
	req := domain.NewRebuildRequest(reason, w.instanceID)

	stats, err := w.rebuild(ctx, req)
	if err != nil {
		return nil, err
	}

	w.broadcast(ctx, req)
	return stats, nil
}

// processLoop drains pending triggers one at a time.
func (w *IndexWorker) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("index worker context cancelled")
			return
		case <-w.stopCh:
			w.logger.Info("index worker stop signal received")
			return
		case req := <-w.pending:
			// errors are recorded for Health and already logged
			_, _ = w.rebuild(ctx, req)
		}
	}
}

// listen forwards broadcasts from other instances into the pending slot.
func (w *IndexWorker) listen(ctx context.Context, updates <-chan *domain.RebuildRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case req, ok := <-updates:
			if !ok {
				w.logger.Warn("rebuild bus subscription closed")
				return
			}
			if req == nil || (req.Origin != "" && req.Origin == w.instanceID) {
				continue
			}
			w.Trigger(&domain.RebuildRequest{
				ID:          req.ID,
				Reason:      domain.RebuildReasonBroadcast,
				Origin:      req.Origin,
				RequestedAt: req.RequestedAt,
			})
		}
	}
}

func (w *IndexWorker) rebuild(ctx context.Context, req *domain.RebuildRequest) (*domain.IndexStats, error) {
	logger := w.logger.With("request_id", req.ID, "reason", req.Reason)
	logger.Info("rebuilding knowledge index")

	startTime := time.Now()
	stats, err := w.index.Rebuild(ctx)
	duration := time.Since(startTime)

	w.mu.Lock()
	w.lastErr = err
	w.lastRunAt = time.Now()
	if err == nil {
		w.rebuilds++
	}
	w.mu.Unlock()

	if err != nil {
		logger.Error("index rebuild failed", "duration", duration, "error", err)
		return nil, err
	}

	logger.Info("index rebuild completed",
		"duration", duration,
		"chunks", stats.Chunks,
		"failed_chunks", stats.FailedChunks,
		"cached_chunks", stats.CachedChunks,
	)
	return stats, nil
}

func (w *IndexWorker) broadcast(ctx context.Context, req *domain.RebuildRequest) {
	if w.bus == nil {
		return
	}
	if err := w.bus.Publish(ctx, req); err != nil {
		w.logger.Warn("failed to broadcast rebuild", "request_id", req.ID, "error", err)
	}
}

// Health reports the worker state and the outcome of the last rebuild.
type Health struct {
	Running    bool      `json:"running"`
	IndexReady bool      `json:"index_ready"`
	Rebuilds   int       `json:"rebuilds"`
	Coalesced  int       `json:"coalesced"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *IndexWorker) Health(ctx context.Context) Health {
	w.mu.RLock()
	defer w.mu.RUnlock()

	health := Health{
		Running:    w.running,
		IndexReady: w.index.Ready(),
		Rebuilds:   w.rebuilds,
		Coalesced:  w.coalesced,
		LastRunAt:  w.lastRunAt,
	}
	if w.lastErr != nil {
		health.Error = w.lastErr.Error()
	}
	return health
}
