package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/voicetyped/voxlate/internal/audio"
	"github.com/voicetyped/voxlate/internal/language"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/translate"
	"github.com/voicetyped/voxlate/pkg/events"
)

// Translator is the retrying translation call.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (translate.Result, error)
}

// Synthesizer turns translated text into audio and reports the voices it
// can use.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string, slow bool) (engine.Audio, error)
	Voices() []engine.Voice
	Models() []engine.ModelInfo
}

// Service runs request-mode translations. It is safe for concurrent use.
type Service struct {
	catalog    *language.Catalog
	translator Translator
	synth      Synthesizer
	store      audio.Store
	publisher  *events.Publisher

	defaultSource string
	defaultTarget string
	audioPrefix   string
}

// Option configures a Service.
type Option func(*Service)

// WithSpeech enables spoken output. Clips are saved to store and referenced
// by URL in the response.
func WithSpeech(synth Synthesizer, store audio.Store) Option {
	return func(s *Service) {
		s.synth = synth
		s.store = store
	}
}

// WithPublisher emits translation.completed and translation.failed events.
func WithPublisher(pub *events.Publisher) Option {
	return func(s *Service) { s.publisher = pub }
}

// WithDefaults sets the languages used when a request omits them.
func WithDefaults(source, target string) Option {
	return func(s *Service) {
		if source != "" {
			s.defaultSource = language.Normalize(source)
		}
		if target != "" {
			s.defaultTarget = language.Normalize(target)
		}
	}
}

// WithAudioPrefix sets the URL path prefix of stored clips.
func WithAudioPrefix(prefix string) Option {
	return func(s *Service) { s.audioPrefix = prefix }
}

// NewService creates a request-mode service.
func NewService(catalog *language.Catalog, translator Translator, opts ...Option) *Service {
	s := &Service{
		catalog:       catalog,
		translator:    translator,
		defaultSource: "en",
		defaultTarget: "ta",
		audioPrefix:   "/audio/",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the language catalog the service resolves names with.
func (s *Service) Catalog() *language.Catalog {
	return s.catalog
}

// Translate handles one request. Failures are reported in the response
// status, never as an error.
func (s *Service) Translate(ctx context.Context, req TranslateRequest) TranslateResponse {
	text := strings.TrimSpace(req.Text)
	src := s.orDefault(req.SrcLang, s.defaultSource)
	dest := s.orDefault(req.DestLang, s.defaultTarget)

	resp := TranslateResponse{
		OriginalText: text,
		SrcLangName:  s.catalog.Name(src),
		DestLangName: s.catalog.Name(dest),
	}

	if text == "" {
		resp.TranslatedText = msgEmptyInput
		resp.Status = StatusWarning
		resp.Message = msgEmptyInput
		return resp
	}

	requestID := xid.New().String()
	result, err := s.translator.Translate(ctx, text, src, dest)
	if err != nil {
		resp.TranslatedText = failedPlaceholder
		resp.Status = StatusError
		resp.Message = msgFailed
		resp.Reason = failureReason(ctx, err)
		slog.WarnContext(ctx, "translate: request failed",
			slog.String("request_id", requestID),
			slog.String("source", src),
			slog.String("target", dest),
			slog.String("reason", resp.Reason),
			slog.String("error", err.Error()))
		s.emit(ctx, events.TranslationFailed, requestID, events.TranslationFailedData{
			SourceLanguage: src,
			TargetLanguage: dest,
			Reason:         resp.Reason,
			Error:          err.Error(),
		})
		return resp
	}

	resp.TranslatedText = result.Text
	resp.Status = StatusOK
	resp.Message = msgSuccess
	if result.DetectedSource != "" {
		detected := result.DetectedSource
		resp.DetectedSrcLangCode = &detected
		if src == language.Auto {
			resp.SrcLangName = "Auto-detected: " + s.catalog.Name(detected)
		}
	}

	completed := events.TranslationData{
		SourceLanguage:   src,
		TargetLanguage:   dest,
		DetectedLanguage: result.DetectedSource,
		Characters:       len([]rune(text)),
	}
	if req.SpeakOutput {
		key, err := s.speak(ctx, result.Text, dest, req.SlowSpeech)
		if err != nil {
			// Text-only response.
			slog.WarnContext(ctx, "translate: speech output unavailable",
				slog.String("request_id", requestID),
				slog.String("target", dest),
				slog.String("error", err.Error()))
			completed.AudioError = err.Error()
		} else {
			url := s.audioPrefix + key
			resp.AudioURL = &url
			completed.AudioKey = key
		}
	}

	s.emit(ctx, events.TranslationCompleted, requestID, completed)
	return resp
}

// Languages returns the catalog sorted by display name.
func (s *Service) Languages() ListLanguagesResponse {
	return ListLanguagesResponse{Languages: s.catalog.Sorted()}
}

// Voices lists the speech backend's voices and models. A non-empty lang keeps
// only voices whose base language matches.
func (s *Service) Voices(lang string) ListVoicesResponse {
	resp := ListVoicesResponse{Voices: []VoiceInfo{}, Models: []ModelInfo{}}
	if s.synth == nil {
		return resp
	}
	want := language.Base(lang)
	for _, v := range s.synth.Voices() {
		if want != "" && language.Base(v.Language) != want {
			continue
		}
		resp.Voices = append(resp.Voices, VoiceInfo{ID: v.ID, Name: v.Name, Language: v.Language})
	}
	for _, m := range s.synth.Models() {
		resp.Models = append(resp.Models, ModelInfo{ID: m.ID, DisplayName: m.DisplayName, Default: m.IsDefault})
	}
	return resp
}

func (s *Service) speak(ctx context.Context, text, lang string, slow bool) (string, error) {
	if s.synth == nil || s.store == nil {
		return "", errSpeechDisabled
	}
	clip, err := s.synth.Synthesize(ctx, text, lang, slow)
	if err != nil {
		return "", err
	}
	return s.store.Save(ctx, clip)
}

func (s *Service) emit(ctx context.Context, eventType events.EventType, id string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, eventType, id, data); err != nil {
		slog.WarnContext(ctx, "translate: emit event",
			slog.String("event_type", string(eventType)),
			slog.String("error", err.Error()))
	}
}

func (s *Service) orDefault(code, def string) string {
	if code = language.Normalize(code); code != "" {
		return code
	}
	return def
}

var errSpeechDisabled = errors.New("speech output is not configured")

// failureReason classifies a translation failure. Per-attempt timeouts are
// wrapped inside ErrRetriesExhausted, so only the request context decides
// whether the caller cancelled.
func failureReason(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return ReasonCancelled
	case errors.Is(err, translate.ErrNonRetryable):
		return ReasonNonRetryable
	case errors.Is(err, translate.ErrRetriesExhausted):
		return ReasonRetriesExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCancelled
	default:
		return ReasonRetriesExhausted
	}
}
