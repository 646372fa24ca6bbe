package normalisers

import (
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry implements NormaliserRegistry as a priority-ordered chain.
// Every registered normaliser runs, highest priority first.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
	sorted      bool
}

// NewRegistry creates a new normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make([]driven.Normaliser, 0),
	}
}

// Register registers a normaliser.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
	r.sorted = false
}

// Normalise runs the chain over text.
func (r *Registry) Normalise(text string) string {
	for _, n := range r.ordered() {
		text = n.Normalise(text)
	}
	return text
}

// List returns normaliser names in execution order.
func (r *Registry) List() []string {
	ordered := r.ordered()
	names := make([]string, len(ordered))
	for i, n := range ordered {
		names[i] = n.Name()
	}
	return names
}

// ordered returns a snapshot sorted by priority (highest first).
// Equal priorities keep registration order.
func (r *Registry) ordered() []driven.Normaliser {
	r.mu.Lock()
	if !r.sorted {
		sort.SliceStable(r.normalisers, func(i, j int) bool {
			return r.normalisers[i].Priority() > r.normalisers[j].Priority()
		})
		r.sorted = true
	}
	out := make([]driven.Normaliser, len(r.normalisers))
	copy(out, r.normalisers)
	r.mu.Unlock()
	return out
}

// DefaultRegistry creates a registry with the utterance normalisers pre-registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&WhitespaceNormaliser{})
	r.Register(&LowercaseNormaliser{})
	r.Register(NewPhraseNormaliser(DefaultPhraseFixes()))
	r.Register(NewTypoNormaliser(DefaultTypoTable()))

	return r
}
