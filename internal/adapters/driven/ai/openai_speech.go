package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Ensure OpenAISpeech implements SpeechSynthesizer
var _ driven.SpeechSynthesizer = (*OpenAISpeech)(nil)

// OpenAISpeech implements SpeechSynthesizer with the audio/speech endpoint
type OpenAISpeech struct {
	model      string
	voice      string
	httpClient *http.Client
	client     *openai.Client
}

// NewOpenAISpeech creates a new OpenAI text-to-speech service
func NewOpenAISpeech(apiKey, model, voice, baseURL string) (driven.SpeechSynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	client, httpClient := newOpenAIClient(apiKey, baseURL, 30*time.Second)

	return &OpenAISpeech{
		model:      model,
		voice:      voice,
		httpClient: httpClient,
		client:     client,
	}, nil
}

// Synthesize renders text as MP3 audio
func (s *OpenAISpeech) Synthesize(ctx context.Context, text string) (*domain.Audio, error) {
	if text == "" {
		return nil, errors.New("nothing to synthesize")
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("openai speech: empty audio")
	}

	return &domain.Audio{Bytes: data, MimeType: "audio/mpeg"}, nil
}

// Close releases resources held by the synthesizer
func (s *OpenAISpeech) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
