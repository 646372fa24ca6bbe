package postprocessors

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It cleans raw model output before the response validator sees it.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates a new post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.PostProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
func (p *Pipeline) Process(text string) string {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	p.mu.Unlock()

	p.mu.RLock()
	processors := make([]driven.PostProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.RUnlock()

	for _, proc := range processors {
		text = proc.Process(text)
	}
	return text
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline creates a pipeline with the default processors.
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(NewEmojiStripper())
	p.Add(NewRolePrefixStripper())
	p.Add(NewWhitespaceNormalizer())
	return p
}

// EmojiStripper removes emoji, pictographs and invisible joiners.
type EmojiStripper struct{}

// Verify interface compliance
var _ driven.PostProcessor = (*EmojiStripper)(nil)

// NewEmojiStripper creates a new emoji stripper.
func NewEmojiStripper() *EmojiStripper {
	return &EmojiStripper{}
}

// Process drops every rune in an emoji or symbol block.
func (e *EmojiStripper) Process(text string) string {
	return strings.Map(func(r rune) rune {
		if isEmoji(r) {
			return -1
		}
		return r
	}, text)
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F600 && r <= 0x1F64F: // emoticons
	case r >= 0x1F300 && r <= 0x1F5FF: // pictographs
	case r >= 0x1F680 && r <= 0x1F6FF: // transport and map
	case r >= 0x1F900 && r <= 0x1F9FF: // supplemental symbols
	case r >= 0x1F1E0 && r <= 0x1F1FF: // flags
	case r >= 0x2600 && r <= 0x26FF: // misc symbols
	case r >= 0x2700 && r <= 0x27BF: // dingbats
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
	case r >= 0x200B && r <= 0x200D, r == 0xFEFF, r == 0x2060: // zero width
	default:
		return false
	}
	return true
}

// Name returns the processor name.
func (e *EmojiStripper) Name() string {
	return "emoji-stripper"
}

// Order returns 0 - emoji stripping runs first.
func (e *EmojiStripper) Order() int {
	return 0
}

// RolePrefixStripper removes a leading speaker label and cuts the text
// where the model starts inventing the next user turn.
type RolePrefixStripper struct {
	prefix   *regexp.Regexp
	nextTurn *regexp.Regexp
}

// Verify interface compliance
var _ driven.PostProcessor = (*RolePrefixStripper)(nil)

// NewRolePrefixStripper creates a new role prefix stripper.
func NewRolePrefixStripper() *RolePrefixStripper {
	return &RolePrefixStripper{
		prefix:   regexp.MustCompile(`^\s*(?i:assistant|ai|bot)\s*:\s*`),
		nextTurn: regexp.MustCompile(`(?m)^\s*User\s*:`),
	}
}

// Process strips role labels.
func (r *RolePrefixStripper) Process(text string) string {
	text = r.prefix.ReplaceAllString(text, "")
	if loc := r.nextTurn.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return text
}

// Name returns the processor name.
func (r *RolePrefixStripper) Name() string {
	return "role-prefix-stripper"
}

// Order returns 10 - runs after emoji stripping.
func (r *RolePrefixStripper) Order() int {
	return 10
}

// WhitespaceNormalizer normalizes whitespace in model output.
type WhitespaceNormalizer struct{}

// Verify interface compliance
var _ driven.PostProcessor = (*WhitespaceNormalizer)(nil)

// NewWhitespaceNormalizer creates a new whitespace normalizer.
func NewWhitespaceNormalizer() *WhitespaceNormalizer {
	return &WhitespaceNormalizer{}
}

// Process normalizes line endings, collapses spaces within lines and
// removes excessive blank lines.
func (w *WhitespaceNormalizer) Process(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " ")
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}

// Name returns the processor name.
func (w *WhitespaceNormalizer) Name() string {
	return "whitespace-normalizer"
}

// Order returns 20 - runs last.
func (w *WhitespaceNormalizer) Order() int {
	return 20
}
