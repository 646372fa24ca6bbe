package domain

// SearchOptions configures a knowledge base search
type SearchOptions struct {
	TopK     int     `json:"top_k"`
	MinScore float64 `json:"min_score"`
}

// DefaultSearchOptions returns the thresholds used for in-domain lookups
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopK:     3,
		MinScore: 0.3,
	}
}

// Normalize fills zero or out-of-range values with defaults
func (o SearchOptions) Normalize() SearchOptions {
	def := DefaultSearchOptions()
	if o.TopK <= 0 {
		o.TopK = def.TopK
	}
	if o.MinScore < -1 || o.MinScore > 1 {
		o.MinScore = def.MinScore
	}
	return o
}

// SearchResult pairs a chunk with its cosine similarity to the query, in [-1, 1]
type SearchResult struct {
	Chunk *KbChunk `json:"chunk"`
	Score float64  `json:"score"`
}
