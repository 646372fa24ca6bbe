package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-concierge/internal/runtime"
)

const (
	// EmptyMessageText is returned for an empty utterance
	EmptyMessageText = "please enter a message."
	// ErrorText is returned when the turn could not be answered
	ErrorText = "error processing request."
	// DefaultFallbackText answers an in-domain question the KB cannot
	DefaultFallbackText = "I'm not sure about that one. Please ask a member of our staff and they'll be happy to help."
)

// Ensure answerService implements AnswerService
var _ driving.AnswerService = (*answerService)(nil)

// AnswerServiceConfig holds configuration for the answer orchestrator
type AnswerServiceConfig struct {
	Normaliser    driven.NormaliserRegistry
	Classifier    *Classifier
	Validator     *Validator
	SearchOptions domain.SearchOptions
	FallbackText  string

	// ConversationStore persists history per conversation ID. Optional.
	ConversationStore driven.ConversationStore
	// Lock serialises turns of one conversation across instances. Optional.
	Lock        driven.DistributedLock
	LockTTL     time.Duration
	LockTimeout time.Duration

	// Feedback records delivered answers so guests can rate them. Optional.
	Feedback driven.FeedbackStore

	Logger *slog.Logger
}

// DefaultAnswerServiceConfig returns sensible defaults
func DefaultAnswerServiceConfig() AnswerServiceConfig {
	return AnswerServiceConfig{
		SearchOptions: domain.DefaultSearchOptions(),
		FallbackText:  DefaultFallbackText,
		LockTTL:       30 * time.Second,
		LockTimeout:   10 * time.Second,
	}
}

// answerService is the answer orchestrator. One call handles one user turn:
// Received, Classified, then KbLookup, MemoryHandling or GenericLlm,
// Validated, Recorded and Responded.
type answerService struct {
	index    *KnowledgeIndex
	gateway  *LLMGateway
	services *runtime.Services

	normaliser driven.NormaliserRegistry
	classifier *Classifier
	validator  *Validator
	searchOpts domain.SearchOptions
	fallback   string

	store       driven.ConversationStore
	lock        driven.DistributedLock
	lockTTL     time.Duration
	lockTimeout time.Duration
	locks       *KeyedMutex
	feedback    driven.FeedbackStore

	logger *slog.Logger
}

// NewAnswerService creates the answer orchestrator
func NewAnswerService(
	index *KnowledgeIndex,
	gateway *LLMGateway,
	services *runtime.Services,
	cfg AnswerServiceConfig,
) driving.AnswerService {
	defaults := DefaultAnswerServiceConfig()
	if cfg.SearchOptions == (domain.SearchOptions{}) {
		cfg.SearchOptions = defaults.SearchOptions
	}
	if cfg.FallbackText == "" {
		cfg.FallbackText = defaults.FallbackText
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = defaults.LockTimeout
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewClassifier(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Validator == nil {
		cfg.Validator = NewValidator(cfg.Classifier, ValidatorConfig{Logger: logger})
	}

	return &answerService{
		index:       index,
		gateway:     gateway,
		services:    services,
		normaliser:  cfg.Normaliser,
		classifier:  cfg.Classifier,
		validator:   cfg.Validator,
		searchOpts:  cfg.SearchOptions.Normalize(),
		fallback:    cfg.FallbackText,
		store:       cfg.ConversationStore,
		lock:        cfg.Lock,
		lockTTL:     cfg.LockTTL,
		lockTimeout: cfg.LockTimeout,
		locks:       NewKeyedMutex(),
		feedback:    cfg.Feedback,
		logger:      logger.With("component", "answer"),
	}
}

// turnResult is the outcome of the routing states
type turnResult struct {
	answer     string
	source     domain.AnswerSource
	score      *float64
	entity     string
	llmLatency time.Duration
}

// Answer handles one user turn
func (s *answerService) Answer(ctx context.Context, req *domain.AnswerRequest) (*domain.AnswerEnvelope, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "AnswerService.Answer")
	defer span.End()

	if req == nil {
		req = &domain.AnswerRequest{}
	}
	logger := s.logger
	if req.ConversationID != "" {
		logger = logger.With("conversation_id", req.ConversationID)
	}
	start := time.Now()

	// Received
	utterance := req.Message
	if s.normaliser != nil {
		utterance = s.normaliser.Normalise(utterance)
	}
	if utterance == "" {
		return s.errorEnvelope(req, copyTurns(req.History), EmptyMessageText), &domain.InputError{Reason: "empty message"}
	}
	logger.Debug("received", "utterance", utterance)

	if req.ConversationID != "" {
		release, err := s.acquire(ctx, req.ConversationID)
		if err != nil {
			logger.Warn("could not lock conversation", "error", err)
			return s.errorEnvelope(req, copyTurns(req.History), ErrorText), err
		}
		defer release()
	}

	// original is the history exactly as received, before any cleaning or
	// capping, so a failed turn hands it back untouched
	original := s.loadHistory(ctx, req, logger)
	state := NewConversationState(original)

	// Classified
	class := s.classifier.Classify(utterance)
	route := class.Route()
	logger.Debug("classified", "tag", class.Tag, "rule", class.Rule, "route", route)

	var (
		result *turnResult
		err    error
	)
	if route == domain.RouteKbLookup {
		result, err = s.kbLookup(ctx, state, utterance)
		if IsNotReady(err) {
			logger.Warn("knowledge index not ready, answering with the model")
			route = domain.RouteGenericLlm
			err = nil
		}
	}
	if route != domain.RouteKbLookup {
		result, err = s.generate(ctx, state, utterance, class, route, logger)
	}
	if err != nil {
		return s.failed(ctx, req, original, err, logger)
	}

	// Recorded: nothing is committed once the caller has gone away
	if ctx.Err() != nil {
		return s.failed(ctx, req, original, ctx.Err(), logger)
	}

	assistant := domain.ConversationTurn{
		Role:          domain.RoleAssistant,
		Content:       result.answer,
		Source:        result.source.Kind(),
		ProvenanceRef: domain.ProvenanceOf(result.source),
		Entity:        result.entity,
	}
	next := AppendTurn(state, domain.ConversationTurn{Role: domain.RoleUser, Content: utterance})
	next = AppendTurn(next, assistant)

	if s.store != nil && req.ConversationID != "" {
		if err := s.store.Save(ctx, req.ConversationID, next); err != nil {
			logger.Warn("failed to persist conversation", "error", err)
		}
	}
	logger.Debug("recorded", "turns", len(next.Turns), "last_entity", next.LastDiscussedEntity)

	// Responded
	env := &domain.AnswerEnvelope{
		Answer:         result.answer,
		Source:         result.source,
		Score:          result.score,
		History:        next.History(),
		ConversationID: req.ConversationID,
		AnswerID:       s.recordAnswer(ctx, req, utterance, result, logger),
	}
	if req.Voice {
		env.Audio = s.synthesize(ctx, result.answer, logger)
	}
	env.LLMResponseTime = result.llmLatency
	env.ResponseTime = time.Since(start)

	span.SetAttributes(
		attribute.String("answer.source", string(env.SourceKind())),
		attribute.String("answer.route", string(route)),
		attribute.Int64("answer.latency_ms", env.ResponseTime.Milliseconds()),
		attribute.Int64("answer.llm_latency_ms", env.LLMResponseTime.Milliseconds()),
	)
	logger.Info("answered", "source", env.SourceKind(), "route", route, "duration", env.ResponseTime, "llm_duration", env.LLMResponseTime)
	return env, nil
}

// kbLookup answers from the top search hit, or the fixed fallback on a miss.
// The model is never called from here.
func (s *answerService) kbLookup(ctx context.Context, state *domain.ConversationState, utterance string) (*turnResult, error) {
	if s.index == nil {
		return nil, &domain.IndexNotReadyError{}
	}

	query := ContextFor(state, utterance)
	results, err := s.index.Search(ctx, query, s.searchOpts)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return &turnResult{answer: s.fallback, source: domain.KbFallbackSource{}}, nil
	}

	top := results[0]
	score := top.Score
	return &turnResult{
		answer: top.Chunk.AnswerText,
		source: domain.KbSource{Ref: top.Chunk.ID},
		score:  &score,
		entity: top.Chunk.Metadata.Entity,
	}, nil
}

// generate answers with the model. Memory and identity questions get the
// history but no KB facts; narrative requests get neither facts nor KB names.
func (s *answerService) generate(ctx context.Context, state *domain.ConversationState, utterance string, class domain.Classification, route domain.Route, logger *slog.Logger) (*turnResult, error) {
	if s.gateway == nil {
		return nil, &domain.AdapterError{Adapter: "llm", Err: domain.ErrServiceUnavailable}
	}

	var facts []string
	if route == domain.RouteGenericLlm && !class.IsOffTopicNarrative {
		facts = s.bestEffortFacts(ctx, utterance, logger)
	}

	history := RecentHistory(state, domain.MaxConversationTurns)
	gen, err := s.gateway.Generate(ctx, "", history, facts, utterance)
	if err != nil {
		return nil, err
	}

	answer := gen.Text
	if class.NeedsValidation() {
		var entities []string
		var business string
		if s.index != nil {
			entities = s.index.Entities()
			business = s.index.BusinessName()
		}
		corrected, outcome := s.validator.Validate(&ValidationInput{
			Raw:          answer,
			Utterance:    utterance,
			Class:        class,
			History:      history,
			Entities:     entities,
			BusinessName: business,
		})
		if outcome.Corrected {
			logger.Info("answer corrected by validator", "rule", outcome.Rule)
		}
		answer = corrected
	}

	return &turnResult{answer: answer, source: domain.LlmSource{}, llmLatency: gen.Latency}, nil
}

func (s *answerService) bestEffortFacts(ctx context.Context, utterance string, logger *slog.Logger) []string {
	if s.index == nil || !s.index.Ready() {
		return nil
	}
	results, err := s.index.Search(ctx, utterance, s.searchOpts)
	if err != nil {
		logger.Debug("fact lookup skipped", "error", err)
		return nil
	}
	facts := make([]string, len(results))
	for i, r := range results {
		facts[i] = r.Chunk.AnswerText
	}
	return facts
}

func (s *answerService) synthesize(ctx context.Context, text string, logger *slog.Logger) *domain.Audio {
	tts := s.services.SpeechSynthesizer()
	if tts == nil {
		logger.Debug("voice requested but no speech synthesizer configured")
		return nil
	}
	audio, err := tts.Synthesize(ctx, text)
	if err != nil {
		logger.Warn("speech synthesis failed, responding with text only", "error", err)
		return nil
	}
	if audio == nil || len(audio.Bytes) == 0 {
		return nil
	}
	return audio
}

// acquire takes the in-process lock for the conversation and, when
// configured, the distributed lock as well.
func (s *answerService) acquire(ctx context.Context, conversationID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	release, err := s.locks.Lock(lockCtx, conversationID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		}
		return nil, domain.ErrLockTimeout
	}
	if s.lock == nil {
		return release, nil
	}

	name := "conversation:" + conversationID
	backoff := 25 * time.Millisecond
	for {
		acquired, err := s.lock.Acquire(lockCtx, name, s.lockTTL)
		if err != nil {
			// the in-process lock still serialises this instance
			s.logger.Warn("distributed lock unavailable", "conversation_id", conversationID, "error", err)
			return release, nil
		}
		if acquired {
			stop := s.keepAlive(ctx, name)
			return func() {
				stop()
				if err := s.lock.Release(context.WithoutCancel(ctx), name); err != nil {
					s.logger.Warn("failed to release conversation lock", "conversation_id", conversationID, "error", err)
				}
				release()
			}, nil
		}

		select {
		case <-lockCtx.Done():
			release()
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
			}
			s.logHolder(ctx, name)
			return nil, domain.ErrLockTimeout
		case <-time.After(backoff):
			backoff = min(backoff*2, 500*time.Millisecond)
		}
	}
}

// recordAnswer keeps the answer for later feedback and returns its id, or ""
// when it was not kept. A failed write never fails the turn.
func (s *answerService) recordAnswer(ctx context.Context, req *domain.AnswerRequest, utterance string, result *turnResult, logger *slog.Logger) string {
	if s.feedback == nil {
		return ""
	}
	now := time.Now().UTC()
	rec := &domain.AnswerRecord{
		ID:             uuid.NewString(),
		ConversationID: req.ConversationID,
		Question:       utterance,
		Answer:         result.answer,
		Source:         result.source.Kind(),
		ProvenanceRef:  domain.ProvenanceOf(result.source),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.feedback.Save(ctx, rec); err != nil {
		logger.Warn("failed to record answer for feedback", "error", err)
		return ""
	}
	return rec.ID
}

// logHolder names the instance holding a contended lock, when the backend
// can tell
func (s *answerService) logHolder(ctx context.Context, name string) {
	inspector, ok := s.lock.(driven.LockHolder)
	if !ok {
		return
	}
	holder, err := inspector.Holder(context.WithoutCancel(ctx), name)
	if err != nil {
		s.logger.Debug("could not read lock holder", "lock", name, "error", err)
		return
	}
	s.logger.Warn("conversation lock held elsewhere", "lock", name, "holder", holder)
}

// keepAlive extends the distributed lock every third of its TTL so a turn
// that outlives the TTL keeps the conversation. The returned func stops the
// renewal and waits for it to finish.
func (s *answerService) keepAlive(ctx context.Context, name string) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(max(s.lockTTL/3, time.Millisecond))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.lock.Extend(ctx, name, s.lockTTL); err != nil {
					if ctx.Err() != nil {
						return
					}
					s.logger.Warn("failed to extend conversation lock", "lock", name, "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// loadHistory returns a copy of the request history, falling back to the
// conversation store when the request carries none.
func (s *answerService) loadHistory(ctx context.Context, req *domain.AnswerRequest, logger *slog.Logger) []domain.ConversationTurn {
	history := req.History
	if len(history) == 0 && s.store != nil && req.ConversationID != "" {
		stored, err := s.store.Load(ctx, req.ConversationID)
		switch {
		case err == nil:
			history = stored.Turns
		case errors.Is(err, domain.ErrNotFound):
		default:
			logger.Warn("failed to load conversation, starting empty", "error", err)
		}
	}
	return copyTurns(history)
}

// failed builds the error envelope, returning the history as it was before the turn
func (s *answerService) failed(ctx context.Context, req *domain.AnswerRequest, original []domain.ConversationTurn, err error, logger *slog.Logger) (*domain.AnswerEnvelope, error) {
	if ctx.Err() != nil && !errors.Is(err, domain.ErrCancelled) {
		err = fmt.Errorf("%w: %v", domain.ErrCancelled, err)
	}
	logger.Error("failed to answer", "error", err)
	return s.errorEnvelope(req, original, ErrorText), err
}

func (s *answerService) errorEnvelope(req *domain.AnswerRequest, history []domain.ConversationTurn, text string) *domain.AnswerEnvelope {
	return &domain.AnswerEnvelope{
		Answer:         text,
		Source:         domain.ErrorSource{Message: text},
		History:        history,
		ConversationID: req.ConversationID,
	}
}

func copyTurns(turns []domain.ConversationTurn) []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, len(turns))
	copy(out, turns)
	return out
}
