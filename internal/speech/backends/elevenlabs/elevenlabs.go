package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/voicetyped/voxlate/internal/speech/backends/restutil"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	defaultVoice   = "21m00Tcm4TlvDq8ikWAM" // Rachel
	sampleRate     = 16000
	slowSpeed      = 0.8
)

func init() {
	registry.TTS.Register("elevenlabs", func(config map[string]string) (engine.TTSEngine, error) {
		apiKey := restutil.ConfigValue(config, "elevenlabs_api_key", "api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("elevenlabs API key required (set elevenlabs_api_key in config)")
		}
		model := config["model"]
		if model == "" {
			// Flash v2.5 is the model family that accepts language_code.
			model = "eleven_flash_v2_5"
		}
		voice := config["voice"]
		if voice == "" {
			voice = defaultVoice
		}
		baseURL := config["elevenlabs_url"]
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		return &ElevenLabsTTS{apiKey: apiKey, model: model, voice: voice, baseURL: baseURL}, nil
	})
}

type elevenLabsRequest struct {
	Text          string                `json:"text"`
	ModelID       string                `json:"model_id"`
	LanguageCode  string                `json:"language_code,omitempty"`
	VoiceSettings elevenLabsVoiceConfig `json:"voice_settings"`
}

type elevenLabsVoiceConfig struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

// ElevenLabsTTS implements TTSEngine using the ElevenLabs REST API.
type ElevenLabsTTS struct {
	apiKey  string
	model   string
	voice   string
	baseURL string
}

func (e *ElevenLabsTTS) Synthesize(ctx context.Context, text, language string, slow bool) (engine.Audio, error) {
	apiURL := fmt.Sprintf("%s/text-to-speech/%s?output_format=pcm_%d", e.baseURL, e.voice, sampleRate)

	headers := map[string]string{
		"xi-api-key":   e.apiKey,
		"Content-Type": "application/json",
	}

	req := elevenLabsRequest{
		Text:         text,
		ModelID:      e.model,
		LanguageCode: language,
		VoiceSettings: elevenLabsVoiceConfig{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}
	if slow {
		req.VoiceSettings.Speed = slowSpeed
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return engine.Audio{}, fmt.Errorf("elevenlabs TTS marshal: %w", err)
	}

	body, err := restutil.DoRaw(ctx, http.MethodPost, apiURL, headers, bytes.NewReader(payload))
	if err != nil {
		return engine.Audio{}, fmt.Errorf("elevenlabs TTS: %w", err)
	}
	defer body.Close()

	pcm, err := io.ReadAll(body)
	if err != nil {
		return engine.Audio{}, fmt.Errorf("elevenlabs TTS read: %w", err)
	}
	return engine.Audio{Data: pcm, Format: engine.FormatPCM, SampleRate: sampleRate}, nil
}

func (e *ElevenLabsTTS) Voices() []engine.Voice {
	return []engine.Voice{
		{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel"},
		{ID: "AZnzlk1XvdvUeBnXmlld", Name: "Domi"},
		{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Bella"},
		{ID: "ErXwobaYiN019PkySvjV", Name: "Antoni"},
	}
}

func (e *ElevenLabsTTS) Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: "eleven_flash_v2_5", DisplayName: "Flash v2.5", IsDefault: true},
		{ID: "eleven_turbo_v2_5", DisplayName: "Turbo v2.5"},
	}
}

func (e *ElevenLabsTTS) Close() error {
	return nil
}
