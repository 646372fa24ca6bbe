package kbfile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// Trigger accepts rebuild requests without blocking
type Trigger interface {
	Trigger(req *domain.RebuildRequest) bool
}

// Watcher requests an index rebuild whenever the knowledge base file changes.
// The parent directory is watched so editors that replace the file are seen.
type Watcher struct {
	path    string
	trigger Trigger
	origin  string
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// WatcherConfig holds watcher dependencies
type WatcherConfig struct {
	Path       string
	Trigger    Trigger
	InstanceID string
	Logger     *slog.Logger
}

// NewWatcher creates a watcher; call Run to start it
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Trigger == nil {
		return nil, fmt.Errorf("%w: trigger is required", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve knowledge base path: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:    abs,
		trigger: cfg.Trigger,
		origin:  cfg.InstanceID,
		logger:  logger.With("component", "kb_watcher", "path", abs),
		watcher: w,
	}, nil
}

// Run forwards change events until ctx is cancelled or the watcher is closed
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			queued := w.trigger.Trigger(domain.NewRebuildRequest(domain.RebuildReasonFileChange, w.origin))
			w.logger.Info("knowledge base changed", "op", event.Op.String(), "queued", queued)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// Close stops the underlying watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
