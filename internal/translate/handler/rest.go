package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/voicetyped/voxlate/internal/audio"
)

const maxRequestBodySize = 1 << 20 // 1 MiB

// REST provides the JSON endpoints and serves stored audio clips.
type REST struct {
	svc    *Service
	store  audio.Store
	limit  int
	health []func(*HealthResponse)
}

// RESTOption configures the REST handler.
type RESTOption func(*REST)

// WithRateLimit caps POST /api/v1/translate at n requests per minute per
// client IP. Zero disables the limit.
func WithRateLimit(n int) RESTOption {
	return func(h *REST) { h.limit = n }
}

// WithHealth adds details to the /healthz body.
func WithHealth(fn func(*HealthResponse)) RESTOption {
	return func(h *REST) { h.health = append(h.health, fn) }
}

// WithAudioStore serves clips from store under GET /audio/{key}.
func WithAudioStore(store audio.Store) RESTOption {
	return func(h *REST) { h.store = store }
}

// NewREST creates the REST handler.
func NewREST(svc *Service, opts ...RESTOption) *REST {
	h := &REST{svc: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all REST routes on the given mux.
func (h *REST) RegisterRoutes(mux *http.ServeMux) {
	var translate http.Handler = http.HandlerFunc(h.Translate)
	if h.limit > 0 {
		translate = httprate.LimitByIP(h.limit, time.Minute)(translate)
	}
	mux.Handle("POST /api/v1/translate", translate)
	mux.HandleFunc("GET /api/v1/languages", h.Languages)
	mux.HandleFunc("GET /api/v1/voices", h.Voices)
	mux.HandleFunc("GET /audio/{key}", h.Audio)
	mux.HandleFunc("GET /healthz", h.Health)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// Translate handles POST /api/v1/translate
func (h *REST) Translate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Translate(r.Context(), req))
}

// Languages handles GET /api/v1/languages
func (h *REST) Languages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Languages())
}

// Voices handles GET /api/v1/voices
func (h *REST) Voices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Voices(r.URL.Query().Get("language")))
}

// Audio handles GET /audio/{key}
func (h *REST) Audio(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if h.store == nil || !audio.ValidKey(key) {
		writeError(w, http.StatusNotFound, "audio not found")
		return
	}

	body, contentType, err := h.store.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, audio.ErrNotFound) {
			writeError(w, http.StatusNotFound, "audio not found")
			return
		}
		slog.ErrorContext(r.Context(), "translate: open audio",
			slog.String("key", key),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to read audio")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

// Health handles GET /healthz
func (h *REST) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok"}
	for _, fn := range h.health {
		fn(&resp)
	}
	writeJSON(w, http.StatusOK, resp)
}
