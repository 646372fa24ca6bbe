package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Services holds the AI collaborators the answer path resolves per call.
// Any of them may be nil; callers degrade instead of failing.
// Safe for concurrent use.
type Services struct {
	mu sync.RWMutex

	backends domain.Backends
	logger   *slog.Logger

	embedder driven.EmbeddingService
	llm      driven.LLMService
	speech   driven.SpeechSynthesizer
}

// NewServices creates an empty registry for the given backends
func NewServices(backends domain.Backends, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	return &Services{
		backends: backends,
		logger:   logger.With("component", "runtime"),
	}
}

// EmbeddingService returns the current embedder (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embedder
}

// LLMService returns the current generative model (may be nil)
func (s *Services) LLMService() driven.LLMService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llm
}

// SpeechSynthesizer returns the current speech synthesizer (may be nil)
func (s *Services) SpeechSynthesizer() driven.SpeechSynthesizer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speech
}

// SetEmbeddingService replaces the embedder, closing the previous one
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	old := s.embedder
	s.embedder = svc
	s.mu.Unlock()
	closeReplaced(old, svc)
}

// SetLLMService replaces the generative model, closing the previous one
func (s *Services) SetLLMService(svc driven.LLMService) {
	s.mu.Lock()
	old := s.llm
	s.llm = svc
	s.mu.Unlock()
	closeReplaced(old, svc)
}

// SetSpeechSynthesizer replaces the synthesizer, closing the previous one
func (s *Services) SetSpeechSynthesizer(svc driven.SpeechSynthesizer) {
	s.mu.Lock()
	old := s.speech
	s.speech = svc
	s.mu.Unlock()
	closeReplaced(old, svc)
}

// ValidateAndSetEmbedding health-checks svc before installing it.
// A failing service is closed and the current one is kept.
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc != nil {
		if err := svc.HealthCheck(ctx); err != nil {
			_ = svc.Close()
			return fmt.Errorf("embedding %s: %w", svc.Model(), err)
		}
	}
	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetLLM pings svc before installing it.
// A failing service is closed and the current one is kept.
func (s *Services) ValidateAndSetLLM(ctx context.Context, svc driven.LLMService) error {
	if svc != nil {
		if err := svc.Ping(ctx); err != nil {
			_ = svc.Close()
			return fmt.Errorf("llm %s: %w", svc.Model(), err)
		}
	}
	s.SetLLMService(svc)
	return nil
}

// Configure builds every collaborator from settings through factory.
// Unconfigured providers stay nil. With validate set, embedder and model
// are probed first and a failing one is left out. The returned error joins
// every provider that could not be created or validated; the registry is
// usable either way.
func (s *Services) Configure(ctx context.Context, factory driven.AIServiceFactory, settings domain.AISettings, validate bool) error {
	var errs []error

	embedder, err := factory.CreateEmbeddingService(&settings.Embedding)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("create embedding service: %w", err))
	case validate:
		if err := s.ValidateAndSetEmbedding(ctx, embedder); err != nil {
			errs = append(errs, err)
		}
	default:
		s.SetEmbeddingService(embedder)
	}

	llm, err := factory.CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("create LLM service: %w", err))
	case validate:
		if err := s.ValidateAndSetLLM(ctx, llm); err != nil {
			errs = append(errs, err)
		}
	default:
		s.SetLLMService(llm)
	}

	speech, err := factory.CreateSpeechSynthesizer(&settings.Speech)
	if err != nil {
		errs = append(errs, fmt.Errorf("create speech synthesizer: %w", err))
	} else {
		s.SetSpeechSynthesizer(speech)
	}

	caps := s.Capabilities()
	if degraded := caps.Degraded(); len(degraded) > 0 {
		s.logger.Warn("running degraded", "unavailable", degraded)
	}
	s.logger.Info("services configured",
		"embedding", caps.EmbeddingModel,
		"llm", caps.LLMModel,
		"speech", caps.Speech,
		"conversation_backend", caps.Backends.Conversation,
		"seed_backend", caps.Backends.Seeds,
	)

	return errors.Join(errs...)
}

// Capabilities returns a snapshot of what is currently wired
func (s *Services) Capabilities() domain.Capabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caps := domain.Capabilities{Backends: s.backends, Speech: s.speech != nil}
	if s.embedder != nil {
		caps.EmbeddingModel = s.embedder.Model()
	}
	if s.llm != nil {
		caps.LLMModel = s.llm.Model()
	}
	return caps
}

// Close shuts down every collaborator
func (s *Services) Close() error {
	s.mu.Lock()
	closers := []io.Closer{s.embedder, s.llm, s.speech}
	s.embedder, s.llm, s.speech = nil, nil, nil
	s.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// closeReplaced closes old unless it is being reinstalled
func closeReplaced(old, next io.Closer) {
	if old == nil || old == next {
		return
	}
	_ = old.Close()
}
