package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

var anaphoraPattern = regexp.MustCompile(`(?i)\b(it|they|them|that|this|these|those)\b`)

// AppendTurn returns a new state with turn appended. When the transcript
// exceeds MaxConversationTurns the oldest turns are dropped.
// The input state is never modified.
func AppendTurn(state *domain.ConversationState, turn domain.ConversationTurn) *domain.ConversationState {
	var turns []domain.ConversationTurn
	if state != nil {
		turns = make([]domain.ConversationTurn, 0, len(state.Turns)+1)
		turns = append(turns, state.Turns...)
	}
	turns = append(turns, turn)

	if len(turns) > domain.MaxConversationTurns {
		turns = turns[len(turns)-domain.MaxConversationTurns:]
	}

	next := &domain.ConversationState{Turns: turns}
	if state != nil {
		next.LastDiscussedEntity = state.LastDiscussedEntity
	}
	if turn.Role == domain.RoleAssistant && turn.Source == domain.SourceKb && turn.Entity != "" {
		next.LastDiscussedEntity = turn.Entity
	}
	return next
}

// ContextFor appends the last discussed entity to an utterance that refers
// back to it with a pronoun, so "how much is it" searches for the dish.
func ContextFor(state *domain.ConversationState, utterance string) string {
	if state == nil || state.LastDiscussedEntity == "" {
		return utterance
	}
	if !anaphoraPattern.MatchString(utterance) {
		return utterance
	}
	return utterance + " " + state.LastDiscussedEntity
}

// NewConversationState builds a state from caller-supplied history.
// Turns with an unknown role or empty content are dropped, the result is
// capped to the most recent turns, and the last discussed entity is taken
// from the latest KB turn that resolved to one.
func NewConversationState(history []domain.ConversationTurn) *domain.ConversationState {
	state := &domain.ConversationState{Turns: []domain.ConversationTurn{}}
	for _, turn := range history {
		if !turn.Role.IsValid() || strings.TrimSpace(turn.Content) == "" {
			continue
		}
		if turn.Role == domain.RoleUser {
			turn.Source = ""
			turn.ProvenanceRef = ""
			turn.Entity = ""
		} else if turn.Source != domain.SourceKb {
			// only KB turns carry provenance
			turn.ProvenanceRef = ""
			turn.Entity = ""
		}
		state = AppendTurn(state, turn)
	}
	return state
}

// RecentHistory returns at most limit turns from the end of the transcript
func RecentHistory(state *domain.ConversationState, limit int) []domain.ConversationTurn {
	turns := state.History()
	if limit >= 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}
