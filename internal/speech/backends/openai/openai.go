package openai

import (
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/voicetyped/voxlate/internal/speech/backends/restutil"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
)

func init() {
	registry.ASR.Register("openai", func(config map[string]string) (engine.ASREngine, error) {
		client, err := newClient(config)
		if err != nil {
			return nil, err
		}
		model := config["openai_asr_model"]
		if model == "" {
			model = goopenai.Whisper1
		}
		return &OpenAIASR{client: client, model: model}, nil
	})

	registry.TTS.Register("openai", func(config map[string]string) (engine.TTSEngine, error) {
		client, err := newClient(config)
		if err != nil {
			return nil, err
		}
		model := config["openai_tts_model"]
		if model == "" {
			model = string(goopenai.TTSModel1)
		}
		voice := config["voice"]
		if voice == "" {
			voice = string(goopenai.VoiceAlloy)
		}
		return &OpenAITTS{client: client, model: goopenai.SpeechModel(model), voice: goopenai.SpeechVoice(voice)}, nil
	})

	registry.MT.Register("openai", func(config map[string]string) (engine.MTEngine, error) {
		client, err := newClient(config)
		if err != nil {
			return nil, err
		}
		model := config["openai_translate_model"]
		if model == "" {
			model = goopenai.GPT4oMini
		}
		return &OpenAITranslate{client: client, model: model}, nil
	})
}

func newClient(config map[string]string) (*goopenai.Client, error) {
	apiKey := restutil.ConfigValue(config, "openai_api_key", "api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key required (set openai_api_key in config)")
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL := restutil.ConfigValue(config, "openai_base_url", "base_url"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return goopenai.NewClientWithConfig(cfg), nil
}

// classify attaches a retry kind to go-openai errors based on the HTTP status.
func classify(op string, err error) error {
	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("%s: %w", op, err)
	}

	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500 {
		return engine.Transient(op, err)
	}
	return engine.Fatal(op, err)
}
