package domain

// MaxConversationTurns caps the number of turns kept per conversation
const MaxConversationTurns = 10

// Role identifies who produced a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true for the two known roles
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label returns the speaker label used in rendered prompts
func (r Role) Label() string {
	if r == RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// Source identifies where an answer came from
type Source string

const (
	SourceKb         Source = "kb"
	SourceKbFallback Source = "kb-fallback"
	SourceLlm        Source = "llm"
	SourceSystem     Source = "system"
	SourceError      Source = "error"
)

// ConversationTurn is one message in a conversation.
// ProvenanceRef is only set on assistant turns answered from the KB.
type ConversationTurn struct {
	Role          Role   `json:"role"`
	Content       string `json:"content"`
	Source        Source `json:"source,omitempty"`
	ProvenanceRef string `json:"provenanceRef,omitempty"`
	Entity        string `json:"entity,omitempty"`
}

// ConversationState is the bounded, ordered transcript of a conversation
type ConversationState struct {
	Turns               []ConversationTurn `json:"turns"`
	LastDiscussedEntity string             `json:"lastDiscussedEntity,omitempty"`
}

// UserTurns returns the content of every user turn, oldest first
func (s *ConversationState) UserTurns() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, t := range s.Turns {
		if t.Role == RoleUser {
			out = append(out, t.Content)
		}
	}
	return out
}

// History returns a copy of the turns
func (s *ConversationState) History() []ConversationTurn {
	if s == nil || len(s.Turns) == 0 {
		return []ConversationTurn{}
	}
	out := make([]ConversationTurn, len(s.Turns))
	copy(out, s.Turns)
	return out
}
