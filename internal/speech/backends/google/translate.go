package google

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/voicetyped/voxlate/internal/speech/backends/restutil"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
)

const defaultTranslateURL = "https://translation.googleapis.com/language/translate/v2"

func init() {
	registry.MT.Register("google", func(config map[string]string) (engine.MTEngine, error) {
		apiKey := restutil.ConfigValue(config, "google_api_key", "api_key")
		if apiKey == "" {
			return nil, fmt.Errorf("google API key required (set google_api_key in config)")
		}
		baseURL := config["google_translate_url"]
		if baseURL == "" {
			baseURL = defaultTranslateURL
		}
		return &GoogleTranslate{apiKey: apiKey, url: baseURL}, nil
	})
}

type googleTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type googleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

// GoogleTranslate implements MTEngine using the Cloud Translation v2 REST API.
type GoogleTranslate struct {
	apiKey string
	url    string
}

func (g *GoogleTranslate) Translate(ctx context.Context, text, source, target string) (engine.MTResult, error) {
	req := googleTranslateRequest{Q: text, Target: target, Format: "text"}
	if source != engine.AutoDetect {
		req.Source = source
	}

	var resp googleTranslateResponse
	if err := restutil.DoJSON(ctx, http.MethodPost, g.url, apiKeyHeader(g.apiKey), req, &resp); err != nil {
		return engine.MTResult{}, fmt.Errorf("google translate: %w", err)
	}
	if len(resp.Data.Translations) == 0 {
		return engine.MTResult{}, nil
	}

	tr := resp.Data.Translations[0]
	return engine.MTResult{
		Text:           html.UnescapeString(tr.TranslatedText),
		DetectedSource: tr.DetectedSourceLanguage,
	}, nil
}

func (g *GoogleTranslate) Close() error {
	return nil
}
