package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven/mocks"
)

// mockIndex implements driving.IndexService for testing
type mockIndex struct {
	mu      sync.Mutex
	calls   int
	ready   bool
	err     error
	block   chan struct{} // when set, Rebuild waits for it to close
	started chan struct{} // signalled at the start of every Rebuild
}

func newMockIndex() *mockIndex {
	return &mockIndex{started: make(chan struct{}, 16)}
}

func (m *mockIndex) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	return nil, nil
}

func (m *mockIndex) Rebuild(ctx context.Context) (*domain.IndexStats, error) {
	select {
	case m.started <- struct{}{}:
	default:
	}

	m.mu.Lock()
	block := m.block
	m.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	m.ready = true
	return &domain.IndexStats{Chunks: 12, Version: uint64(m.calls)}, nil
}

func (m *mockIndex) Stats() *domain.IndexStats { return nil }

func (m *mockIndex) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *mockIndex) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewIndexWorker_Defaults(t *testing.T) {
	w := NewIndexWorker(IndexWorkerConfig{Index: newMockIndex()})

	if w.logger == nil {
		t.Error("expected default logger")
	}
	if cap(w.pending) != 1 {
		t.Errorf("expected pending capacity 1, got %d", cap(w.pending))
	}
}

func TestIndexWorker_RebuildNow(t *testing.T) {
	index := newMockIndex()
	bus := mocks.NewMockRebuildBus()
	w := NewIndexWorker(IndexWorkerConfig{Index: index, Bus: bus, InstanceID: "a", Logger: discardLogger()})

	stats, err := w.RebuildNow(context.Background(), domain.RebuildReasonAPI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Chunks != 12 {
		t.Errorf("expected 12 chunks, got %d", stats.Chunks)
	}

	published := bus.Published()
	if len(published) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(published))
	}
	if published[0].Origin != "a" || published[0].Reason != domain.RebuildReasonAPI {
		t.Errorf("unexpected broadcast: %+v", published[0])
	}

	health := w.Health(context.Background())
	if !health.IndexReady || health.Rebuilds != 1 || health.Error != "" {
		t.Errorf("unexpected health: %+v", health)
	}
}

func TestIndexWorker_RebuildNowFailure(t *testing.T) {
	index := newMockIndex()
	index.err = errors.New("kb file missing")
	bus := mocks.NewMockRebuildBus()
	w := NewIndexWorker(IndexWorkerConfig{Index: index, Bus: bus, Logger: discardLogger()})

	_, err := w.RebuildNow(context.Background(), domain.RebuildReasonCLI)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(bus.Published()) != 0 {
		t.Error("failed rebuilds must not be broadcast")
	}
	if w.Health(context.Background()).Error != "kb file missing" {
		t.Error("expected last error in health")
	}
}

func TestIndexWorker_TriggerProcessed(t *testing.T) {
	index := newMockIndex()
	w := NewIndexWorker(IndexWorkerConfig{Index: index, Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if !w.Trigger(domain.NewRebuildRequest(domain.RebuildReasonFileChange, "")) {
		t.Error("expected trigger to be queued")
	}
	waitFor(t, func() bool { return index.Calls() == 1 })
}

func TestIndexWorker_TriggerCoalesces(t *testing.T) {
	index := newMockIndex()
	index.block = make(chan struct{})
	w := NewIndexWorker(IndexWorkerConfig{Index: index, Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// first trigger starts a rebuild that blocks
	w.Trigger(nil)
	<-index.started

	// one more fills the pending slot, the rest fold into it
	if !w.Trigger(nil) {
		t.Error("expected second trigger to be queued")
	}
	for i := 0; i < 5; i++ {
		if w.Trigger(nil) {
			t.Error("expected trigger to be coalesced")
		}
	}

	close(index.block)
	waitFor(t, func() bool { return index.Calls() == 2 })

	// nothing else runs
	time.Sleep(50 * time.Millisecond)
	if calls := index.Calls(); calls != 2 {
		t.Errorf("expected 2 rebuilds, got %d", calls)
	}
	if coalesced := w.Health(ctx).Coalesced; coalesced != 5 {
		t.Errorf("expected 5 coalesced triggers, got %d", coalesced)
	}
	w.Stop()
}

func TestIndexWorker_BroadcastFromOtherInstance(t *testing.T) {
	index := newMockIndex()
	bus := mocks.NewMockRebuildBus()
	w := NewIndexWorker(IndexWorkerConfig{Index: index, Bus: bus, InstanceID: "a", Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	// own broadcasts are ignored
	_ = bus.Publish(ctx, domain.NewRebuildRequest(domain.RebuildReasonAPI, "a"))
	time.Sleep(50 * time.Millisecond)
	if index.Calls() != 0 {
		t.Fatal("own broadcast should not trigger a rebuild")
	}

	_ = bus.Publish(ctx, domain.NewRebuildRequest(domain.RebuildReasonAPI, "b"))
	waitFor(t, func() bool { return index.Calls() == 1 })
}

func TestIndexWorker_StartIdempotent(t *testing.T) {
	w := NewIndexWorker(IndexWorkerConfig{Index: newMockIndex(), Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !w.Health(ctx).Running {
		t.Error("expected running")
	}

	w.Stop()
	w.Stop()
	if w.Health(ctx).Running {
		t.Error("expected stopped")
	}
}

func TestIndexWorker_ContextCancelStops(t *testing.T) {
	w := NewIndexWorker(IndexWorkerConfig{Index: newMockIndex(), Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
