package domain

// QueryTag is the label a classifier rule assigns to an utterance
type QueryTag string

const (
	TagIdentity          QueryTag = "identity"
	TagMemory            QueryTag = "memory"
	TagOffTopicNarrative QueryTag = "narrative"
	TagGeneralKnowledge  QueryTag = "general"
	TagDomain            QueryTag = "domain"
	TagContextual        QueryTag = "contextual"
	TagUnknown           QueryTag = "unknown"
)

// Classification is the result of classifying a normalized utterance
type Classification struct {
	InDomain            bool     `json:"in_domain"`
	IsMemoryQuestion    bool     `json:"is_memory_question"`
	IsIdentityQuestion  bool     `json:"is_identity_question"`
	IsOffTopicNarrative bool     `json:"is_off_topic_narrative"`
	IsGeneralKnowledge  bool     `json:"is_general_knowledge"`
	Tag                 QueryTag `json:"tag"`
	Rule                string   `json:"rule,omitempty"` // name of the rule that matched
}

// Route is the orchestrator branch chosen for a classified utterance
type Route string

const (
	RouteKbLookup       Route = "kb_lookup"
	RouteMemoryHandling Route = "memory_handling"
	RouteGenericLlm     Route = "generic_llm"
)

// Route maps the classification onto an orchestrator branch
func (c Classification) Route() Route {
	switch {
	case c.IsIdentityQuestion || c.IsMemoryQuestion:
		return RouteMemoryHandling
	case c.InDomain:
		return RouteKbLookup
	default:
		return RouteGenericLlm
	}
}

// NeedsValidation reports whether the response validator applies
func (c Classification) NeedsValidation() bool {
	return c.IsIdentityQuestion || c.IsMemoryQuestion || c.IsOffTopicNarrative
}
