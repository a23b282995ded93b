package libre

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
)

func TestTranslate(t *testing.T) {
	var got translateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"translatedText":"ciao","detectedLanguage":{"language":"en","confidence":92}}`))
	}))
	defer srv.Close()

	mt, err := registry.MT.Create("libre", map[string]string{"libretranslate_url": srv.URL + "/", "libretranslate_api_key": "secret"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := mt.Translate(t.Context(), "hello", engine.AutoDetect, "it")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != "ciao" || res.DetectedSource != "en" {
		t.Errorf("result = %+v", res)
	}
	if got.Source != "auto" || got.Target != "it" || got.APIKey != "secret" {
		t.Errorf("request = %+v", got)
	}
}

func TestTranslateBadRequestIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"xx is not supported"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	l := &LibreTranslate{baseURL: srv.URL}
	_, err := l.Translate(t.Context(), "hello", "en", "xx")
	if got := engine.KindOf(err); got != engine.KindFatal {
		t.Errorf("KindOf = %s, want fatal", got)
	}
}

func TestMissingURL(t *testing.T) {
	if _, err := registry.MT.Create("libre", map[string]string{}); err == nil {
		t.Error("expected error without URL")
	}
}
