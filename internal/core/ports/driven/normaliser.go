package driven

// Normaliser rewrites a user utterance into a canonical form before
// classification and search.
type Normaliser interface {
	// Normalise transforms the text. It must be idempotent.
	Normalise(text string) string

	// Name returns the normaliser name for logging/debugging.
	Name() string

	// Priority returns the normaliser priority (higher runs first).
	// Priority ranges:
	//   90-100: Structural cleanup (trim, lowercase, whitespace)
	//   50-89:  Phrase rewrites
	//   10-49:  Word-level fixes (typos)
	Priority() int
}

// NormaliserRegistry chains normalisers by priority.
type NormaliserRegistry interface {
	// Normalise runs every registered normaliser, highest priority first.
	Normalise(text string) string

	// Register registers a normaliser.
	Register(normaliser Normaliser)

	// List returns normaliser names in execution order.
	List() []string
}

// PostProcessor cleans raw LLM output before it is validated.
type PostProcessor interface {
	// Process returns the cleaned text.
	Process(text string) string

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// PostProcessorPipeline chains multiple post-processors in order.
type PostProcessorPipeline interface {
	// Process applies all processors in order.
	Process(text string) string

	// Add adds a processor to the pipeline.
	// Processors are sorted by Order() before processing.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
