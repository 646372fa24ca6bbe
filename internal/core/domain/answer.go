package domain

import "time"

// AnswerSource records where an answer came from. Only KbSource carries a
// provenance reference, so an LLM answer can never claim KB provenance.
type AnswerSource interface {
	Kind() Source
	answerSource()
}

// KbSource is an answer taken verbatim from a knowledge base chunk
type KbSource struct {
	Ref string // chunk ID
}

// KbFallbackSource is the fixed reply for an in-domain query with no KB hit
type KbFallbackSource struct{}

// LlmSource is an answer produced by the generative model
type LlmSource struct{}

// ErrorSource is returned when the turn failed and nothing was recorded
type ErrorSource struct {
	Message string
}

func (KbSource) Kind() Source         { return SourceKb }
func (KbFallbackSource) Kind() Source { return SourceKbFallback }
func (LlmSource) Kind() Source        { return SourceLlm }
func (ErrorSource) Kind() Source      { return SourceError }

func (KbSource) answerSource()         {}
func (KbFallbackSource) answerSource() {}
func (LlmSource) answerSource()        {}
func (ErrorSource) answerSource()      {}

// ProvenanceOf returns the chunk reference for KB answers and "" otherwise
func ProvenanceOf(src AnswerSource) string {
	if kb, ok := src.(KbSource); ok {
		return kb.Ref
	}
	return ""
}

// Audio is synthesized speech for an answer
type Audio struct {
	Bytes    []byte
	MimeType string
}

// AnswerRequest is one user turn submitted to the orchestrator
type AnswerRequest struct {
	Message        string
	History        []ConversationTurn
	ConversationID string
	Voice          bool
}

// AnswerEnvelope is the orchestrator's response
type AnswerEnvelope struct {
	Answer         string
	Source         AnswerSource
	Score          *float64
	History        []ConversationTurn
	Audio          *Audio
	ConversationID string
	// AnswerID identifies the answer for ratings and flags. Empty when no
	// feedback store is configured or the answer could not be recorded.
	AnswerID string

	// ResponseTime covers the whole turn; LLMResponseTime only the model
	// call and is zero when the model was not asked
	ResponseTime    time.Duration
	LLMResponseTime time.Duration
}

// ProvenanceRef returns the KB chunk reference, if any
func (e *AnswerEnvelope) ProvenanceRef() string {
	if e == nil || e.Source == nil {
		return ""
	}
	return ProvenanceOf(e.Source)
}

// SourceKind returns the wire name of the answer source
func (e *AnswerEnvelope) SourceKind() Source {
	if e == nil || e.Source == nil {
		return SourceError
	}
	return e.Source.Kind()
}
