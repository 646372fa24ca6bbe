package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Rebuilder runs a synchronous index rebuild and notifies other instances
type Rebuilder interface {
	RebuildNow(ctx context.Context, reason domain.RebuildReason) (*domain.IndexStats, error)
}

// CapabilityReporter exposes which AI collaborators are wired
type CapabilityReporter interface {
	Capabilities() domain.Capabilities
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	answers   driving.AnswerService
	index     driving.IndexService
	rebuilder Rebuilder // optional, falls back to index.Rebuild
	caps      CapabilityReporter
	feedback  driving.FeedbackService // optional

	// Infrastructure health checks by name (redis, postgres, ...)
	backends map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// Dependencies are the services the server routes to
type Dependencies struct {
	Answers   driving.AnswerService
	Index     driving.IndexService
	Rebuilder Rebuilder
	Caps      CapabilityReporter
	Feedback  driving.FeedbackService
	Backends  map[string]Pinger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:    http.NewServeMux(),
		version:   cfg.Version,
		logger:    logger.With("component", "http"),
		answers:   deps.Answers,
		index:     deps.Index,
		rebuilder: deps.Rebuilder,
		caps:      deps.Caps,
		feedback:  deps.Feedback,
		backends:  deps.Backends,
	}

	s.setupRoutes()

	handler := NewRecoveryMiddleware(s.logger).Handler(
		NewRequestIDMiddleware().Handler(
			NewLoggingMiddleware(s.logger).Handler(
				NewCORSMiddleware(cfg.AllowedOrigins).Handler(s.router))))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Conversation endpoints
	s.router.HandleFunc("POST /api/v1/chat", s.handleChat)
	s.router.HandleFunc("POST /api/v1/voice", s.handleVoice)

	// Knowledge base endpoints
	s.router.HandleFunc("POST /api/v1/kb/search", s.handleSearch)
	s.router.HandleFunc("POST /api/v1/kb/rebuild", s.handleRebuild)
	s.router.HandleFunc("GET /api/v1/kb/stats", s.handleStats)

	// Feedback endpoints
	s.router.HandleFunc("POST /api/v1/feedback/rate", s.handleRate)
	s.router.HandleFunc("POST /api/v1/feedback/flag", s.handleFlag)
	s.router.HandleFunc("GET /api/v1/feedback/flagged", s.handleFlagged)
}

// Handler returns the fully wrapped handler (used by tests)
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
