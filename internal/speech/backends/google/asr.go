package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/voicetyped/voxlate/internal/speech/backends/restutil"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
)

const defaultSpeechURL = "https://speech.googleapis.com/v1/speech:recognize"

func init() {
	registry.ASR.Register("google", func(config map[string]string) (engine.ASREngine, error) {
		apiKey := restutil.ConfigValue(config, "google_api_key", "api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("google API key required (set google_api_key in config)")
		}
		model := config["model"]
		if model == "" {
			model = "latest_short"
		}
		baseURL := config["google_speech_url"]
		if baseURL == "" {
			baseURL = defaultSpeechURL
		}
		return &GoogleASR{apiKey: apiKey, model: model, url: baseURL}, nil
	})
}

type googleRecognizeRequest struct {
	Config googleRecognizeConfig `json:"config"`
	Audio  googleRecognizeAudio  `json:"audio"`
}

type googleRecognizeConfig struct {
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	LanguageCode    string `json:"languageCode"`
	Model           string `json:"model,omitempty"`
}

type googleRecognizeAudio struct {
	Content string `json:"content"`
}

type googleRecognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float32 `json:"confidence"`
		} `json:"alternatives"`
		LanguageCode string `json:"languageCode"`
	} `json:"results"`
}

// GoogleASR implements ASREngine using the Google Cloud Speech-to-Text REST API.
type GoogleASR struct {
	apiKey string
	model  string
	url    string
}

func (g *GoogleASR) Recognize(ctx context.Context, pcm []byte, language string) (engine.ASRResult, error) {
	req := googleRecognizeRequest{
		Config: googleRecognizeConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: 16000,
			LanguageCode:    language,
			Model:           g.model,
		},
		Audio: googleRecognizeAudio{
			Content: base64.StdEncoding.EncodeToString(pcm),
		},
	}

	var resp googleRecognizeResponse
	if err := restutil.DoJSON(ctx, http.MethodPost, g.url, apiKeyHeader(g.apiKey), req, &resp); err != nil {
		return engine.ASRResult{}, fmt.Errorf("google ASR: %w", err)
	}

	var parts []string
	var conf float32
	var lang string
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		parts = append(parts, strings.TrimSpace(alt.Transcript))
		conf = alt.Confidence
		lang = r.LanguageCode
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return engine.ASRResult{}, engine.ErrNotUnderstood
	}
	return engine.ASRResult{Text: text, Confidence: conf, Language: lang}, nil
}

func (g *GoogleASR) Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: "latest_short", DisplayName: "Latest Short", IsDefault: true},
		{ID: "latest_long", DisplayName: "Latest Long"},
		{ID: "command_and_search", DisplayName: "Command and Search"},
	}
}

func (g *GoogleASR) Close() error {
	return nil
}
