package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/voicetyped/voxlate/internal/speech/backends/restutil"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
)

const defaultListenURL = "https://api.deepgram.com/v1/listen"

func init() {
	registry.ASR.Register("deepgram", func(config map[string]string) (engine.ASREngine, error) {
		apiKey := restutil.ConfigValue(config, "deepgram_api_key", "api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("deepgram API key required (set deepgram_api_key in config)")
		}
		model := config["model"]
		if model == "" {
			model = "nova-2"
		}
		listenURL := config["deepgram_url"]
		if listenURL == "" {
			listenURL = defaultListenURL
		}
		return &DeepgramASR{apiKey: apiKey, model: model, url: listenURL}, nil
	})
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float32 `json:"confidence"`
			} `json:"alternatives"`
			DetectedLanguage string `json:"detected_language"`
		} `json:"channels"`
	} `json:"results"`
}

// DeepgramASR implements ASREngine using the Deepgram pre-recorded REST API.
type DeepgramASR struct {
	apiKey string
	model  string
	url    string
}

func (d *DeepgramASR) Recognize(ctx context.Context, pcm []byte, language string) (engine.ASRResult, error) {
	params := url.Values{}
	params.Set("model", d.model)
	params.Set("encoding", "linear16")
	params.Set("sample_rate", "16000")
	params.Set("channels", "1")
	if language != "" {
		params.Set("language", language)
	}

	headers := map[string]string{
		"Authorization": "Token " + d.apiKey,
		"Content-Type":  "audio/l16;rate=16000;channels=1",
	}

	body, err := restutil.DoRaw(ctx, http.MethodPost, d.url+"?"+params.Encode(), headers, bytes.NewReader(pcm))
	if err != nil {
		return engine.ASRResult{}, fmt.Errorf("deepgram API: %w", err)
	}
	defer body.Close()

	var resp deepgramResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return engine.ASRResult{}, engine.Transient("deepgram", fmt.Errorf("bad response body: %w", err))
	}

	if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return engine.ASRResult{}, engine.ErrNotUnderstood
	}
	ch := resp.Results.Channels[0]
	alt := ch.Alternatives[0]
	text := strings.TrimSpace(alt.Transcript)
	if text == "" {
		return engine.ASRResult{}, engine.ErrNotUnderstood
	}
	return engine.ASRResult{Text: text, Confidence: alt.Confidence, Language: ch.DetectedLanguage}, nil
}

func (d *DeepgramASR) Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: "nova-2", DisplayName: "Nova 2", IsDefault: true},
		{ID: "nova-2-general", DisplayName: "Nova 2 General"},
		{ID: "nova-3", DisplayName: "Nova 3"},
		{ID: "enhanced", DisplayName: "Enhanced"},
		{ID: "base", DisplayName: "Base"},
	}
}

func (d *DeepgramASR) Close() error {
	return nil
}
