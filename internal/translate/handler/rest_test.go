package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voicetyped/voxlate/internal/language"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/translate"
)

func newRESTServer(t *testing.T, svc *Service, opts ...RESTOption) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewREST(svc, opts...).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRESTTranslate(t *testing.T) {
	tr := &fakeTranslator{result: translate.Result{Text: "hola"}}
	srv := newRESTServer(t, NewService(language.Default(), tr))

	resp := postJSON(t, srv.URL+"/api/v1/translate", `{"text":"hello","src_lang":"en","dest_lang":"es"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"original_text":          "hello",
		"translated_text":        "hola",
		"audio_url":              nil,
		"src_lang_name":          "English",
		"dest_lang_name":         "Spanish",
		"detected_src_lang_code": nil,
		"status":                 "ok",
		"message":                msgSuccess,
	}
	for k, v := range want {
		got, ok := raw[k]
		if !ok {
			t.Errorf("missing field %q", k)
			continue
		}
		if got != v {
			t.Errorf("%s = %v, want %v", k, got, v)
		}
	}
}

func TestRESTTranslateBadBody(t *testing.T) {
	srv := newRESTServer(t, NewService(language.Default(), &fakeTranslator{}))

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"text":`},
		{"too large", `{"text":"` + strings.Repeat("a", maxRequestBodySize) + `"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/translate", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body ErrorResponse
			json.NewDecoder(resp.Body).Decode(&body)
			if body.Error == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestRESTRateLimit(t *testing.T) {
	tr := &fakeTranslator{result: translate.Result{Text: "ok"}}
	srv := newRESTServer(t, NewService(language.Default(), tr), WithRateLimit(2))

	var codes []int
	for range 3 {
		codes = append(codes, postJSON(t, srv.URL+"/api/v1/translate", `{"text":"a"}`).StatusCode)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestRESTLanguages(t *testing.T) {
	svc := NewService(language.New(map[string]string{"ta": "Tamil", "en": "English"}), &fakeTranslator{})
	srv := newRESTServer(t, svc)

	resp, err := http.Get(srv.URL + "/api/v1/languages")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body ListLanguagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Languages) != 2 || body.Languages[0].Name != "English" {
		t.Errorf("languages = %+v", body.Languages)
	}
}

func TestRESTVoices(t *testing.T) {
	svc := NewService(language.Default(), &fakeTranslator{}, WithSpeech(&fakeSynth{}, newMemStore(t)))
	srv := newRESTServer(t, svc)

	resp, err := http.Get(srv.URL + "/api/v1/voices?language=en")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body ListVoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Voices) != 1 || body.Voices[0].Language != "en-US" {
		t.Errorf("voices = %+v", body.Voices)
	}
	if len(body.Models) != 1 || body.Models[0].ID != "standard" {
		t.Errorf("models = %+v", body.Models)
	}
}

func TestRESTAudio(t *testing.T) {
	store := newMemStore(t)
	key, err := store.Save(t.Context(), engine.Audio{Data: []byte{1, 0, 2, 0}, Format: engine.FormatPCM, SampleRate: 16000})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	srv := newRESTServer(t, NewService(language.Default(), &fakeTranslator{}), WithAudioStore(store))

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"stored clip", "/audio/" + key, http.StatusOK},
		{"unknown key", "/audio/cs0000000000000000000.wav", http.StatusNotFound},
		{"hidden name", "/audio/.env", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tc.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			if tc.wantStatus != http.StatusOK {
				return
			}
			if ct := resp.Header.Get("Content-Type"); ct != "audio/wav" {
				t.Errorf("content type = %q", ct)
			}
			data, _ := io.ReadAll(resp.Body)
			if !bytes.HasPrefix(data, []byte("RIFF")) {
				t.Errorf("body is not a WAV file: % x", data[:min(len(data), 8)])
			}
		})
	}
}

func TestRESTHealth(t *testing.T) {
	srv := newRESTServer(t, NewService(language.Default(), &fakeTranslator{}),
		WithHealth(func(h *HealthResponse) { h.Breaker = "closed" }))

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body HealthResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Status != "ok" || body.Breaker != "closed" {
		t.Errorf("health = %+v", body)
	}
}
