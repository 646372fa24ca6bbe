package domain

import "time"

// ChunkKind classifies where in the knowledge base a chunk came from
type ChunkKind string

const (
	ChunkKindBusiness ChunkKind = "business"
	ChunkKindFact     ChunkKind = "fact"
	ChunkKindLocation ChunkKind = "location"
	ChunkKindMenuItem ChunkKind = "menu_item"
	ChunkKindMenu     ChunkKind = "menu"
	ChunkKindChef     ChunkKind = "chef"
	ChunkKindPolicy   ChunkKind = "policy"
	ChunkKindAllergy  ChunkKind = "allergy"
	ChunkKindFAQ      ChunkKind = "faq"
)

// ChunkMetadata describes the origin of a chunk
type ChunkMetadata struct {
	Kind       ChunkKind         `json:"kind"`
	SourcePath string            `json:"source_path"` // unique, e.g. menu.categories.dumplings[0]
	Category   string            `json:"category,omitempty"`
	Entity     string            `json:"entity,omitempty"` // set for entity-scoped chunks only
	Extra      map[string]string `json:"extra,omitempty"`
}

// KbChunk is one indexed, embeddable unit of KB content.
// Chunks are immutable once an index snapshot is published.
type KbChunk struct {
	ID         string        `json:"id"`
	Text       string        `json:"text"`        // used for embedding
	AnswerText string        `json:"answer_text"` // shown to the user
	Embedding  []float32     `json:"embedding,omitempty"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// IsEntityScoped reports whether the chunk describes one specific entity
func (c *KbChunk) IsEntityScoped() bool {
	return c != nil && c.Metadata.Entity != ""
}

// SeedRecord is the persisted form of an embedded chunk.
// Records are keyed by chunk ID and reused when ContentHash and Model still match.
type SeedRecord struct {
	ChunkID      string        `json:"chunk_id"`
	QuestionText string        `json:"question_text"`
	AnswerText   string        `json:"answer_text"`
	Embedding    []float32     `json:"embedding"`
	Metadata     ChunkMetadata `json:"metadata"`
	Model        string        `json:"model"`
	ContentHash  string        `json:"content_hash"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IndexStats summarises the most recent index build
type IndexStats struct {
	Chunks       int           `json:"chunks"`
	FailedChunks int           `json:"failed_chunks"`
	CachedChunks int           `json:"cached_chunks"`
	Dimensions   int           `json:"dimensions"`
	Model        string        `json:"model"`
	BuiltAt      time.Time     `json:"built_at"`
	Took         time.Duration `json:"took" swaggertype:"integer" example:"1500000"`
	Version      uint64        `json:"version"`
}
