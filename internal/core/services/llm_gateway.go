package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-concierge/internal/runtime"
)

// EmptyGenerationText replaces model output that is empty after post-processing
const EmptyGenerationText = "sorry, i couldn't generate a response."

// DefaultSystemPrompt instructs the model for a restaurant concierge
const DefaultSystemPrompt = `You are a friendly assistant for a restaurant.
Answer in one to three short sentences.
Use the conversation history to answer questions about what the user said earlier.
Only state facts about the restaurant that appear in the relevant facts section.
If the user asks for a story or a joke, keep it generic and do not mention the restaurant.
Never use placeholders such as [name].`

// LLMGatewayConfig holds configuration for the LLM gateway
type LLMGatewayConfig struct {
	SystemPrompt string
	// PostProcessors cleans raw model output. Optional.
	PostProcessors driven.PostProcessorPipeline
	Logger         *slog.Logger
}

// LLMGateway assembles prompts and calls the generative model
type LLMGateway struct {
	services *runtime.Services
	config   LLMGatewayConfig
	logger   *slog.Logger
}

// NewLLMGateway creates a gateway. The model is resolved per call via runtime.Services.
func NewLLMGateway(services *runtime.Services, cfg LLMGatewayConfig) *LLMGateway {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMGateway{
		services: services,
		config:   cfg,
		logger:   logger.With("component", "llm_gateway"),
	}
}

// SystemPrompt returns the configured system prompt
func (g *LLMGateway) SystemPrompt() string {
	return g.config.SystemPrompt
}

// Generate renders the prompt, calls the model and post-processes the output.
// history must already exclude the current user turn; only the last
// MaxConversationTurns entries are sent.
func (g *LLMGateway) Generate(ctx context.Context, systemPrompt string, history []domain.ConversationTurn, facts []string, utterance string) (*domain.Generation, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "LLMGateway.Generate")
	defer span.End()

	llm := g.services.LLMService()
	if llm == nil {
		span.SetStatus(codes.Error, "llm not configured")
		return nil, &domain.AdapterError{Adapter: "llm", Err: domain.ErrServiceUnavailable}
	}

	if systemPrompt == "" {
		systemPrompt = g.config.SystemPrompt
	}
	if len(history) > domain.MaxConversationTurns {
		history = history[len(history)-domain.MaxConversationTurns:]
	}

	prompt := domain.Prompt{
		System:    systemPrompt,
		History:   history,
		Facts:     facts,
		Utterance: utterance,
	}

	start := time.Now()
	raw, err := llm.Generate(ctx, prompt.Render())
	latency := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		g.logger.Warn("generation failed", "model", llm.Model(), "duration", latency, "error", err)
		return nil, &domain.AdapterError{Adapter: "llm", Err: err}
	}

	text := raw
	if g.config.PostProcessors != nil {
		text = g.config.PostProcessors.Process(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = EmptyGenerationText
	}

	span.SetAttributes(
		attribute.String("llm.model", llm.Model()),
		attribute.Int("llm.history_turns", len(history)),
		attribute.Int("llm.facts", len(facts)),
		attribute.Int64("llm.latency_ms", latency.Milliseconds()),
	)
	g.logger.Debug("generation complete", "model", llm.Model(), "duration", latency, "chars", len(text))

	return &domain.Generation{Text: text, Latency: latency}, nil
}
