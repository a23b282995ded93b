package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/voicetyped/voxlate/internal/speech/backends/restutil"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
)

const (
	defaultTTSURL = "https://texttospeech.googleapis.com/v1/text:synthesize"
	ttsSampleRate = 24000
	slowRate      = 0.75
)

func init() {
	registry.TTS.Register("google", func(config map[string]string) (engine.TTSEngine, error) {
		apiKey := restutil.ConfigValue(config, "google_api_key", "api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("google API key required (set google_api_key in config)")
		}
		baseURL := config["google_tts_url"]
		if baseURL == "" {
			baseURL = defaultTTSURL
		}
		return &GoogleTTS{apiKey: apiKey, url: baseURL}, nil
	})
}

type googleSynthRequest struct {
	Input       googleSynthInput       `json:"input"`
	Voice       googleSynthVoice       `json:"voice"`
	AudioConfig googleSynthAudioConfig `json:"audioConfig"`
}

type googleSynthInput struct {
	Text string `json:"text"`
}

type googleSynthVoice struct {
	LanguageCode string `json:"languageCode"`
	SSMLGender   string `json:"ssmlGender"`
}

type googleSynthAudioConfig struct {
	AudioEncoding   string  `json:"audioEncoding"`
	SampleRateHertz int     `json:"sampleRateHertz"`
	SpeakingRate    float64 `json:"speakingRate,omitempty"`
}

type googleSynthResponse struct {
	AudioContent string `json:"audioContent"` // base64-encoded
}

// GoogleTTS implements TTSEngine using the Google Cloud Text-to-Speech REST API.
// LINEAR16 responses carry a WAV header.
type GoogleTTS struct {
	apiKey string
	url    string
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text, language string, slow bool) (engine.Audio, error) {
	req := googleSynthRequest{
		Input: googleSynthInput{Text: text},
		Voice: googleSynthVoice{
			LanguageCode: language,
			SSMLGender:   "NEUTRAL",
		},
		AudioConfig: googleSynthAudioConfig{
			AudioEncoding:   "LINEAR16",
			SampleRateHertz: ttsSampleRate,
		},
	}
	if slow {
		req.AudioConfig.SpeakingRate = slowRate
	}

	var resp googleSynthResponse
	if err := restutil.DoJSON(ctx, http.MethodPost, g.url, apiKeyHeader(g.apiKey), req, &resp); err != nil {
		return engine.Audio{}, fmt.Errorf("google TTS: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return engine.Audio{}, fmt.Errorf("google TTS decode audio: %w", err)
	}
	if len(data) == 0 {
		return engine.Audio{}, engine.Transient("google TTS", fmt.Errorf("bad response: no audio content"))
	}

	return engine.Audio{Data: data, Format: engine.FormatWAV, SampleRate: ttsSampleRate}, nil
}

func (g *GoogleTTS) Voices() []engine.Voice {
	return []engine.Voice{
		{ID: "neutral", Name: "Neutral (language default)"},
	}
}

func (g *GoogleTTS) Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: "standard", DisplayName: "Standard", IsDefault: true},
	}
}

func (g *GoogleTTS) Close() error {
	return nil
}
