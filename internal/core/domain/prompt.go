package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	historyStart = "=== CONVERSATION HISTORY_START ==="
	historyEnd   = "=== CONVERSATION HISTORY_END ==="
	factsHeader  = "=== RELEVANT FACTS FROM KNOWLEDGE BASE ==="
)

// Prompt is everything sent to the generative model for one turn
type Prompt struct {
	System    string
	History   []ConversationTurn // at most MaxConversationTurns, excluding the current turn
	Facts     []string
	Utterance string
}

// Render assembles the prompt in its fixed order: system instructions,
// history lines, retrieved facts, the user line and the assistant cue.
func (p Prompt) Render() string {
	var b strings.Builder

	if p.System != "" {
		b.WriteString(strings.TrimSpace(p.System))
		b.WriteString("\n\n")
	}

	if len(p.History) > 0 {
		b.WriteString(historyStart)
		b.WriteString("\n")
		for _, turn := range p.History {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role.Label(), turn.Content)
		}
		b.WriteString(historyEnd)
		b.WriteString("\n\n")
	}

	if len(p.Facts) > 0 {
		b.WriteString(factsHeader)
		b.WriteString("\n")
		for i, fact := range p.Facts {
			fmt.Fprintf(&b, "%d. %s\n", i+1, fact)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User: %s\n", p.Utterance)
	b.WriteString("Assistant:")
	return b.String()
}

// Generation is the post-processed model output for one prompt
type Generation struct {
	Text    string        `json:"text"`
	Latency time.Duration `json:"latency" swaggertype:"integer"`
}
