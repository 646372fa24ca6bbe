package domain

// Backends names the storage backends chosen at startup. Empty or "none"
// means the concern runs without external state.
type Backends struct {
	Conversation string `json:"conversation"`
	Seeds        string `json:"seeds"`
	Lock         string `json:"lock"`
	Feedback     string `json:"feedback,omitempty"`
}

// Capabilities is a point-in-time view of which optional collaborators
// are wired. Answering degrades per missing capability rather than failing.
type Capabilities struct {
	Backends       Backends `json:"backends"`
	EmbeddingModel string   `json:"embeddingModel,omitempty"`
	LLMModel       string   `json:"llmModel,omitempty"`
	Speech         bool     `json:"speech"`
}

// CanSearchKB reports whether utterances can be embedded for KB search
func (c Capabilities) CanSearchKB() bool {
	return c.EmbeddingModel != ""
}

// CanGenerate reports whether the generative path is available
func (c Capabilities) CanGenerate() bool {
	return c.LLMModel != ""
}

// PersistsConversations reports whether history is kept server-side
func (c Capabilities) PersistsConversations() bool {
	return isBackendSet(c.Backends.Conversation)
}

// PersistsSeeds reports whether embedded chunks survive a restart
func (c Capabilities) PersistsSeeds() bool {
	return isBackendSet(c.Backends.Seeds)
}

// Degraded lists the answer paths that are currently unavailable
func (c Capabilities) Degraded() []string {
	var missing []string
	if !c.CanSearchKB() {
		missing = append(missing, "kb_search")
	}
	if !c.CanGenerate() {
		missing = append(missing, "generation")
	}
	if !c.Speech {
		missing = append(missing, "speech")
	}
	return missing
}

func isBackendSet(name string) bool {
	return name != "" && name != "none"
}
