package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-concierge/internal/normalisers"
	"github.com/custodia-labs/sercha-concierge/internal/postprocessors"
)

// answeringFeature holds the state of one scenario
type answeringFeature struct {
	embedder *mocks.MockEmbeddingService
	llm      *mocks.MockLLMService
	index    *KnowledgeIndex
	history  []domain.ConversationTurn
	envelope *domain.AnswerEnvelope
	state    *domain.ConversationState
}

func (f *answeringFeature) reset() {
	f.embedder = mocks.NewMockEmbeddingService()
	f.llm = mocks.NewMockLLMService("Happy to help.")
	f.history = nil
	f.envelope = nil
	f.state = nil
}

func (f *answeringFeature) knowledgeBaseIsIndexed() error {
	services := newTestServices(f.embedder, f.llm)
	f.index = NewKnowledgeIndex(services, KnowledgeIndexConfig{Logger: discardLogger()})
	_, err := f.index.Build(context.Background(), testKnowledgeBase())
	return err
}

func (f *answeringFeature) guestSaid(message string) error {
	f.history = append(f.history,
		domain.ConversationTurn{Role: domain.RoleUser, Content: message},
		domain.ConversationTurn{Role: domain.RoleAssistant, Content: "Nice to meet you!", Source: domain.SourceLlm},
	)
	return nil
}

func (f *answeringFeature) modelReplies(text string) error {
	f.llm.SetResponse(text)
	return nil
}

func (f *answeringFeature) modelUnavailable() error {
	f.llm.Err = errors.New("connection refused")
	return nil
}

func (f *answeringFeature) guestAsks(message string) error {
	services := newTestServices(f.embedder, f.llm)
	gateway := NewLLMGateway(services, LLMGatewayConfig{
		PostProcessors: postprocessors.DefaultPipeline(),
		Logger:         discardLogger(),
	})
	cfg := DefaultAnswerServiceConfig()
	cfg.Normaliser = normalisers.DefaultRegistry()
	cfg.Logger = discardLogger()

	svc := NewAnswerService(f.index, gateway, services, cfg)
	// errors are part of the envelope and asserted by later steps
	f.envelope, _ = svc.Answer(context.Background(), &domain.AnswerRequest{Message: message, History: f.history})
	return nil
}

func (f *answeringFeature) answerSourceIs(source string) error {
	if got := string(f.envelope.SourceKind()); got != source {
		return fmt.Errorf("expected source %q, got %q (answer %q)", source, got, f.envelope.Answer)
	}
	return nil
}

func (f *answeringFeature) answerIs(text string) error {
	if f.envelope.Answer != text {
		return fmt.Errorf("expected answer %q, got %q", text, f.envelope.Answer)
	}
	return nil
}

func (f *answeringFeature) answerContains(text string) error {
	if !strings.Contains(f.envelope.Answer, text) {
		return fmt.Errorf("expected %q in answer %q", text, f.envelope.Answer)
	}
	return nil
}

func (f *answeringFeature) answerDoesNotContain(text string) error {
	if strings.Contains(strings.ToLower(f.envelope.Answer), strings.ToLower(text)) {
		return fmt.Errorf("did not expect %q in answer %q", text, f.envelope.Answer)
	}
	return nil
}

func (f *answeringFeature) answerHasProvenance() error {
	if f.envelope.ProvenanceRef() == "" {
		return errors.New("expected a provenance reference")
	}
	return nil
}

func (f *answeringFeature) modelNotCalled() error {
	if calls := f.llm.Calls(); calls != 0 {
		return fmt.Errorf("expected no model calls, got %d", calls)
	}
	return nil
}

func (f *answeringFeature) historyHasTurns(n int) error {
	if got := len(f.envelope.History); got != n {
		return fmt.Errorf("expected %d history turns, got %d", n, got)
	}
	return nil
}

func (f *answeringFeature) emptyConversation() error {
	f.state = &domain.ConversationState{}
	return nil
}

func (f *answeringFeature) turnsAppended(n int) error {
	for i := 1; i <= n; i++ {
		f.state = AppendTurn(f.state, domain.ConversationTurn{Role: domain.RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}
	return nil
}

func (f *answeringFeature) conversationHasTurns(n int) error {
	if got := len(f.state.Turns); got != n {
		return fmt.Errorf("expected %d turns, got %d", n, got)
	}
	return nil
}

func (f *answeringFeature) turnAbsentAndPresent(absent, present int) error {
	seen := make(map[string]bool)
	for _, turn := range f.state.Turns {
		seen[turn.Content] = true
	}
	if seen[fmt.Sprintf("turn %d", absent)] {
		return fmt.Errorf("turn %d should have been dropped", absent)
	}
	if !seen[fmt.Sprintf("turn %d", present)] {
		return fmt.Errorf("turn %d should be present", present)
	}
	return nil
}

func initializeAnsweringScenario(sc *godog.ScenarioContext) {
	f := &answeringFeature{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	sc.Step(`^the restaurant knowledge base is indexed$`, f.knowledgeBaseIsIndexed)
	sc.Step(`^the guest said "([^"]*)"$`, f.guestSaid)
	sc.Step(`^the model replies "([^"]*)"$`, f.modelReplies)
	sc.Step(`^the model is unavailable$`, f.modelUnavailable)
	sc.Step(`^the guest asks "([^"]*)"$`, f.guestAsks)
	sc.Step(`^the answer source is "([^"]*)"$`, f.answerSourceIs)
	sc.Step(`^the answer is "([^"]*)"$`, f.answerIs)
	sc.Step(`^the answer contains "([^"]*)"$`, f.answerContains)
	sc.Step(`^the answer does not contain "([^"]*)"$`, f.answerDoesNotContain)
	sc.Step(`^the answer has a provenance reference$`, f.answerHasProvenance)
	sc.Step(`^the model was not called$`, f.modelNotCalled)
	sc.Step(`^the history has (\d+) turns$`, f.historyHasTurns)
	sc.Step(`^an empty conversation$`, f.emptyConversation)
	sc.Step(`^(\d+) turns are appended$`, f.turnsAppended)
	sc.Step(`^the conversation has (\d+) turns$`, f.conversationHasTurns)
	sc.Step(`^turn (\d+) is absent and turn (\d+) is present$`, f.turnAbsentAndPresent)
}

func TestAnsweringFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "answering",
		ScenarioInitializer: initializeAnsweringScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
