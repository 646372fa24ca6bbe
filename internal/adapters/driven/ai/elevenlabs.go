package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haguro/elevenlabs-go"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Ensure ElevenLabsSpeech implements SpeechSynthesizer
var _ driven.SpeechSynthesizer = (*ElevenLabsSpeech)(nil)

const (
	defaultElevenLabsVoice   = "21m00Tcm4TlvDq8ikWAM"
	defaultElevenLabsModel   = "eleven_turbo_v2_5"
	defaultElevenLabsTimeout = 30 * time.Second
)

// elevenLabsClient is the part of the ElevenLabs SDK client the adapter uses
type elevenLabsClient interface {
	TextToSpeech(voiceID string, ttsReq elevenlabs.TextToSpeechRequest, queries ...elevenlabs.QueryFunc) ([]byte, error)
}

// ElevenLabsSpeech implements SpeechSynthesizer using the ElevenLabs SDK
type ElevenLabsSpeech struct {
	model string
	voice string

	// The SDK binds a context per client, so one is built for each call
	newClient func(ctx context.Context) elevenLabsClient
}

// NewElevenLabsSpeech creates a new ElevenLabs text-to-speech service.
// The SDK always talks to api.elevenlabs.io, so a custom base URL is refused.
func NewElevenLabsSpeech(apiKey, model, voice, baseURL string) (driven.SpeechSynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ElevenLabs API key is required")
	}
	if baseURL != "" {
		return nil, fmt.Errorf("%w: ElevenLabs does not support a custom base URL", domain.ErrInvalidInput)
	}
	if model == "" {
		model = defaultElevenLabsModel
	}
	if voice == "" {
		voice = defaultElevenLabsVoice
	}

	return &ElevenLabsSpeech{
		model: model,
		voice: voice,
		newClient: func(ctx context.Context) elevenLabsClient {
			return elevenlabs.NewClient(ctx, apiKey, defaultElevenLabsTimeout)
		},
	}, nil
}

// Synthesize renders text as MP3 audio
func (s *ElevenLabsSpeech) Synthesize(ctx context.Context, text string) (*domain.Audio, error) {
	if text == "" {
		return nil, errors.New("nothing to synthesize")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.newClient(ctx).TextToSpeech(s.voice, elevenlabs.TextToSpeechRequest{
		Text:    text,
		ModelID: s.model,
		VoiceSettings: &elevenlabs.VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ElevenLabs text to speech: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("ElevenLabs returned empty audio")
	}

	// the default output format is mp3_44100_128
	return &domain.Audio{Bytes: data, MimeType: "audio/mpeg"}, nil
}

// Close is a no-op; clients are built per call
func (s *ElevenLabsSpeech) Close() error {
	return nil
}
