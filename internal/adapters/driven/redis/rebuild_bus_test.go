package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, ch <-chan *domain.RebuildRequest) *domain.RebuildRequest {
	t.Helper()
	select {
	case req, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed")
		}
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for rebuild request")
	}
	return nil
}

func TestRebuildBus_FanOut(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := NewRebuildBus(client, discardLogger())
	b := NewRebuildBus(client, discardLogger())
	defer a.Close()
	defer b.Close()

	subA, err := a.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	subB, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe b: %v", err)
	}

	req := domain.NewRebuildRequest(domain.RebuildReasonAPI, "instance-a")
	if err := a.Publish(ctx, req); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for _, ch := range []<-chan *domain.RebuildRequest{subA, subB} {
		got := receive(t, ch)
		if got.ID != req.ID || got.Origin != "instance-a" || got.Reason != domain.RebuildReasonAPI {
			t.Errorf("unexpected request: %+v", got)
		}
	}
}

func TestRebuildBus_SkipsMalformed(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewRebuildBus(client, discardLogger())
	defer bus.Close()

	sub, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := client.Publish(ctx, RebuildChannel, "not json").Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	req := domain.NewRebuildRequest(domain.RebuildReasonCLI, "cli")
	if err := bus.Publish(ctx, req); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if got := receive(t, sub); got.ID != req.ID {
		t.Errorf("expected %s, got %s", req.ID, got.ID)
	}
}

func TestRebuildBus_ClosesOnCancel(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	bus := NewRebuildBus(client, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-sub:
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}

	if err := bus.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}
