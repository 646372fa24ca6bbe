package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

func userTurn(content string) domain.ConversationTurn {
	return domain.ConversationTurn{Role: domain.RoleUser, Content: content}
}

func TestAppendTurn_CapsAtTen(t *testing.T) {
	state := &domain.ConversationState{}
	for i := 1; i <= 11; i++ {
		state = AppendTurn(state, userTurn(fmt.Sprintf("turn %d", i)))
	}

	require.Len(t, state.Turns, domain.MaxConversationTurns)
	assert.Equal(t, "turn 2", state.Turns[0].Content)
	assert.Equal(t, "turn 11", state.Turns[9].Content)
	for _, turn := range state.Turns {
		assert.NotEqual(t, "turn 1", turn.Content)
	}
}

func TestAppendTurn_PreservesRecentTurnsInOrder(t *testing.T) {
	for n := 0; n <= 25; n++ {
		state := &domain.ConversationState{}
		var all []string
		for i := 0; i < n; i++ {
			content := fmt.Sprintf("m%d", i)
			all = append(all, content)
			state = AppendTurn(state, userTurn(content))
			assert.LessOrEqual(t, len(state.Turns), domain.MaxConversationTurns)
		}

		want := all
		if len(want) > domain.MaxConversationTurns {
			want = want[len(want)-domain.MaxConversationTurns:]
		}
		got := make([]string, len(state.Turns))
		for i, turn := range state.Turns {
			got[i] = turn.Content
		}
		if len(want) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, want, got, "n=%d", n)
		}
	}
}

func TestAppendTurn_DoesNotMutateInput(t *testing.T) {
	original := &domain.ConversationState{Turns: []domain.ConversationTurn{userTurn("first")}}
	next := AppendTurn(original, userTurn("second"))

	assert.Len(t, original.Turns, 1)
	assert.Len(t, next.Turns, 2)
	assert.Len(t, AppendTurn(nil, userTurn("x")).Turns, 1)
}

func TestAppendTurn_LastDiscussedEntity(t *testing.T) {
	state := AppendTurn(nil, userTurn("what are momos"))
	state = AppendTurn(state, domain.ConversationTurn{
		Role: domain.RoleAssistant, Content: "Momos: steamed dumplings",
		Source: domain.SourceKb, ProvenanceRef: "c1", Entity: "Momos",
	})
	assert.Equal(t, "Momos", state.LastDiscussedEntity)

	// LLM and fallback answers never change the entity
	state = AppendTurn(state, domain.ConversationTurn{Role: domain.RoleAssistant, Content: "Thukpa is great", Source: domain.SourceLlm, Entity: "Thukpa"})
	state = AppendTurn(state, domain.ConversationTurn{Role: domain.RoleAssistant, Content: "ask staff", Source: domain.SourceKbFallback})
	assert.Equal(t, "Momos", state.LastDiscussedEntity)

	// KB answers without an entity keep it too
	state = AppendTurn(state, domain.ConversationTurn{Role: domain.RoleAssistant, Content: "We deliver", Source: domain.SourceKb, ProvenanceRef: "c2"})
	assert.Equal(t, "Momos", state.LastDiscussedEntity)
}

func TestContextFor(t *testing.T) {
	withEntity := &domain.ConversationState{LastDiscussedEntity: "Momos"}

	tests := []struct {
		name      string
		state     *domain.ConversationState
		utterance string
		want      string
	}{
		{"pronoun it", withEntity, "how much is it", "how much is it Momos"},
		{"pronoun those", withEntity, "are those spicy", "are those spicy Momos"},
		{"pronoun that", withEntity, "tell me about that dish", "tell me about that dish Momos"},
		{"no pronoun", withEntity, "what are your hours", "what are your hours"},
		{"pronoun inside word", withEntity, "is the item vegan", "is the item vegan"},
		{"thin is not this", withEntity, "thin crust", "thin crust"},
		{"no entity", &domain.ConversationState{}, "how much is it", "how much is it"},
		{"nil state", nil, "how much is it", "how much is it"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextFor(tt.state, tt.utterance))
		})
	}
}

func TestNewConversationState(t *testing.T) {
	history := []domain.ConversationTurn{
		{Role: "system", Content: "ignored"},
		{Role: domain.RoleUser, Content: "   "},
		{Role: domain.RoleUser, Content: "what are momos", Source: domain.SourceKb, ProvenanceRef: "bogus"},
		{Role: domain.RoleAssistant, Content: "Momos: steamed dumplings", Source: domain.SourceKb, ProvenanceRef: "c1", Entity: "Momos"},
		{Role: domain.RoleAssistant, Content: "made up", Source: domain.SourceLlm, ProvenanceRef: "c9", Entity: "Thukpa"},
	}

	state := NewConversationState(history)
	require.Len(t, state.Turns, 3)
	assert.Equal(t, "", state.Turns[0].ProvenanceRef)
	assert.Equal(t, domain.Source(""), state.Turns[0].Source)
	assert.Equal(t, "c1", state.Turns[1].ProvenanceRef)
	assert.Equal(t, "", state.Turns[2].ProvenanceRef, "LLM turns never carry provenance")
	assert.Equal(t, "Momos", state.LastDiscussedEntity)
}

func TestNewConversationState_Empty(t *testing.T) {
	state := NewConversationState(nil)
	assert.NotNil(t, state.Turns)
	assert.Empty(t, state.Turns)
	assert.Equal(t, []domain.ConversationTurn{}, state.History())
}

func TestNewConversationState_TrimsLongHistory(t *testing.T) {
	var history []domain.ConversationTurn
	for i := 0; i < 15; i++ {
		history = append(history, userTurn(fmt.Sprintf("q%d", i)))
	}
	state := NewConversationState(history)
	require.Len(t, state.Turns, domain.MaxConversationTurns)
	assert.Equal(t, "q5", state.Turns[0].Content)
}

func TestRecentHistory(t *testing.T) {
	state := NewConversationState([]domain.ConversationTurn{userTurn("a"), userTurn("b"), userTurn("c")})

	assert.Len(t, RecentHistory(state, 10), 3)
	got := RecentHistory(state, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Content)
	assert.Empty(t, RecentHistory(nil, 10))
}
