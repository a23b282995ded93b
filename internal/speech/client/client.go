// Package client adapts speech engines to the pipeline: language codes are
// normalized and each call is bounded by a timeout.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/voicetyped/voxlate/internal/language"
	"github.com/voicetyped/voxlate/internal/speech/engine"
)

// DefaultCallTimeout bounds one backend call when no timeout is configured.
const DefaultCallTimeout = 30 * time.Second

// Synthesizer turns text into a clip. It never retries; errors surface
// unchanged to the caller.
type Synthesizer struct {
	engine  engine.TTSEngine
	timeout time.Duration
}

// NewSynthesizer wraps eng. A non-positive timeout uses DefaultCallTimeout.
func NewSynthesizer(eng engine.TTSEngine, timeout time.Duration) *Synthesizer {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Synthesizer{engine: eng, timeout: timeout}
}

// Synthesize speaks text in lang, reduced to its base subtag ("en-us" is
// synthesized as "en").
func (s *Synthesizer) Synthesize(ctx context.Context, text, lang string, slow bool) (engine.Audio, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	clip, err := s.engine.Synthesize(ctx, text, language.Base(lang), slow)
	if err != nil {
		return engine.Audio{}, err
	}
	if clip.Empty() {
		return engine.Audio{}, fmt.Errorf("synthesize: backend returned no audio")
	}
	return clip, nil
}

// Voices lists the backend's voices.
func (s *Synthesizer) Voices() []engine.Voice {
	return s.engine.Voices()
}

// Models lists the backend's synthesis models.
func (s *Synthesizer) Models() []engine.ModelInfo {
	return s.engine.Models()
}

// Recognizer transcribes one captured utterance.
type Recognizer struct {
	engine  engine.ASREngine
	timeout time.Duration
}

// NewRecognizer wraps eng. A non-positive timeout uses DefaultCallTimeout.
func NewRecognizer(eng engine.ASREngine, timeout time.Duration) *Recognizer {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Recognizer{engine: eng, timeout: timeout}
}

// Recognize returns the transcript of pcm spoken in lang. Empty transcripts
// are reported as engine.ErrNotUnderstood.
func (r *Recognizer) Recognize(ctx context.Context, pcm []byte, lang string) (string, error) {
	if len(pcm) == 0 {
		return "", engine.ErrNotUnderstood
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.engine.Recognize(ctx, pcm, language.Normalize(lang))
	if err != nil {
		return "", err
	}
	if res.Text == "" {
		return "", engine.ErrNotUnderstood
	}
	return res.Text, nil
}

// Models lists the backend's recognition models.
func (r *Recognizer) Models() []engine.ModelInfo {
	return r.engine.Models()
}
