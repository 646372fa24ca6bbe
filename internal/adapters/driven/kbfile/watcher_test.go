package kbfile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

type recordingTrigger struct {
	mu       sync.Mutex
	requests []*domain.RebuildRequest
	notify   chan struct{}
}

func newRecordingTrigger() *recordingTrigger {
	return &recordingTrigger{notify: make(chan struct{}, 16)}
}

func (r *recordingTrigger) Trigger(req *domain.RebuildRequest) bool {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
	return true
}

func (r *recordingTrigger) first() *domain.RebuildRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return nil
	}
	return r.requests[0]
}

func TestWatcher_TriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatal(err)
	}

	trigger := newRecordingTrigger()
	w, err := NewWatcher(WatcherConfig{
		Path:       path,
		Trigger:    trigger,
		InstanceID: "node-1",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(path, []byte(sampleYAML+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-trigger.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild trigger")
	}

	req := trigger.first()
	if req.Reason != domain.RebuildReasonFileChange {
		t.Errorf("reason = %q, want %q", req.Reason, domain.RebuildReasonFileChange)
	}
	if req.Origin != "node-1" {
		t.Errorf("origin = %q, want node-1", req.Origin)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatal(err)
	}

	trigger := newRecordingTrigger()
	w, err := NewWatcher(WatcherConfig{Path: path, Trigger: trigger, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-trigger.notify:
		t.Error("unexpected trigger for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNewWatcher_RequiresTrigger(t *testing.T) {
	if _, err := NewWatcher(WatcherConfig{Path: "kb.yaml"}); err == nil {
		t.Error("expected error without trigger")
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.yaml")

	w, err := NewWatcher(WatcherConfig{Path: path, Trigger: newRecordingTrigger()})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
