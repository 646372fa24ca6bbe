package driven

import (
	"context"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// SpeechSynthesizer converts answer text to audio.
// Callers treat any error, or a nil result, as "no audio".
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (*domain.Audio, error)

	// Close releases resources held by the synthesizer
	Close() error
}
