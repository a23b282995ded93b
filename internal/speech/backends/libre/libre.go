package libre

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/voicetyped/voxlate/internal/speech/backends/restutil"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
)

func init() {
	registry.MT.Register("libre", func(config map[string]string) (engine.MTEngine, error) {
		baseURL := config["libretranslate_url"]
		if baseURL == "" {
			return nil, fmt.Errorf("libretranslate URL required (set libretranslate_url in config)")
		}
		return &LibreTranslate{
			baseURL: strings.TrimRight(baseURL, "/"),
			apiKey:  config["libretranslate_api_key"],
		}, nil
	})
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText   string `json:"translatedText"`
	DetectedLanguage *struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	} `json:"detectedLanguage"`
}

// LibreTranslate implements MTEngine against a self-hosted LibreTranslate server.
type LibreTranslate struct {
	baseURL string
	apiKey  string
}

func (l *LibreTranslate) Translate(ctx context.Context, text, source, target string) (engine.MTResult, error) {
	req := translateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: l.apiKey,
	}

	var resp translateResponse
	if err := restutil.DoJSON(ctx, http.MethodPost, l.baseURL+"/translate", nil, req, &resp); err != nil {
		return engine.MTResult{}, fmt.Errorf("libretranslate: %w", err)
	}

	res := engine.MTResult{Text: resp.TranslatedText}
	if source == engine.AutoDetect && resp.DetectedLanguage != nil {
		res.DetectedSource = resp.DetectedLanguage.Language
	}
	return res, nil
}

func (l *LibreTranslate) Close() error {
	return nil
}
