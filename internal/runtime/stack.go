// Package runtime assembles the translation stack shared by the server and
// the live command from configuration.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/voicetyped/voxlate/config"
	"github.com/voicetyped/voxlate/internal/audio"
	"github.com/voicetyped/voxlate/internal/language"
	"github.com/voicetyped/voxlate/internal/speech/client"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
	"github.com/voicetyped/voxlate/internal/translate"
)

// Stack holds the engines and the wrappers built around them. Both modes
// share one Translator and one Synthesizer.
type Stack struct {
	Catalog    *language.Catalog
	Translator *translate.Translator
	Breaker    *translate.Breaker
	Synth      *client.Synthesizer
	Recognizer *client.Recognizer

	closers []func() error
}

// Build creates the translation and synthesis engines, and the recognition
// engine when withASR is set.
func Build(backends config.BackendSettings, retry config.RetrySettings, catalogFile string, withASR bool) (*Stack, error) {
	catalog, err := LoadCatalog(catalogFile)
	if err != nil {
		return nil, err
	}

	s := &Stack{Catalog: catalog}

	mt, err := registry.MT.Create(backends.MTBackend, backends.MTConfig())
	if err != nil {
		return nil, fmt.Errorf("translation backend: %w", err)
	}
	s.closers = append(s.closers, mt.Close)

	tts, err := registry.TTS.Create(backends.TTSBackend, backends.TTSConfig())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("speech synthesis backend: %w", err)
	}
	s.closers = append(s.closers, tts.Close)

	var opts []translate.Option
	if s.Breaker = retry.Breaker(); s.Breaker != nil {
		opts = append(opts, translate.WithBreaker(s.Breaker))
	}
	s.Translator = translate.New(mt, retry.TranslateConfig(), opts...)
	s.Synth = client.NewSynthesizer(tts, backends.CallTimeout())

	if withASR {
		var asr engine.ASREngine
		asr, err = registry.ASR.Create(backends.ASRBackend, backends.ASRConfig())
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("speech recognition backend: %w", err)
		}
		s.closers = append(s.closers, asr.Close)
		s.Recognizer = client.NewRecognizer(asr, backends.CallTimeout())
	}

	slog.Info("runtime: backends ready",
		slog.String("mt", backends.MTBackend),
		slog.String("tts", backends.TTSBackend),
		slog.String("tts_model", DefaultModel(s.Synth.Models())),
		slog.Bool("asr", withASR),
		slog.Int("languages", catalog.Len()))
	return s, nil
}

// DefaultModel returns the ID of the model flagged as default, the first
// model when none is flagged, or "" for an empty list.
func DefaultModel(models []engine.ModelInfo) string {
	for _, m := range models {
		if m.IsDefault {
			return m.ID
		}
	}
	if len(models) > 0 {
		return models[0].ID
	}
	return ""
}

// Close releases every engine.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// LoadCatalog returns the built-in catalog, merged with path when set.
func LoadCatalog(path string) (*language.Catalog, error) {
	if path == "" {
		return language.Default(), nil
	}
	catalog, err := language.Load(path)
	if err != nil {
		return nil, fmt.Errorf("language catalog: %w", err)
	}
	return catalog, nil
}

// OpenAudioStore opens MinIO when an endpoint is configured, otherwise the
// Go CDK bucket URL.
func OpenAudioStore(ctx context.Context, cfg config.StorageSettings) (audio.Store, error) {
	if cfg.MinioEndpoint != "" {
		return audio.NewMinioStore(ctx, cfg.MinioConfig())
	}
	return audio.OpenBlobStore(ctx, cfg.AudioBucketURL)
}
