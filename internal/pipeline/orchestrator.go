// Package pipeline runs the continuous listen, transcribe, translate,
// synthesize and play loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/voicetyped/voxlate/internal/audio"
	"github.com/voicetyped/voxlate/internal/language"
	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/translate"
)

// Capture records one phrase of 16 kHz mono PCM.
type Capture interface {
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]byte, error)
}

// Playback plays a clip to completion.
type Playback interface {
	Play(ctx context.Context, clip engine.Audio) error
}

// Recognizer transcribes a phrase.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []byte, lang string) (string, error)
}

// Translator translates a transcript.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (translate.Result, error)
}

// Synthesizer speaks a translation.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string, slow bool) (engine.Audio, error)
}

// Outcome is how one pass through the loop ended.
type Outcome string

const (
	OutcomeCompleted         Outcome = "completed"
	OutcomeNoSpeech          Outcome = "no_speech"
	OutcomeCaptureFailed     Outcome = "capture_failed"
	OutcomeNotUnderstood     Outcome = "not_understood"
	OutcomeRecognitionFailed Outcome = "recognition_failed"
	OutcomeTranslationFailed Outcome = "translation_failed"
	OutcomeSynthesisFailed   Outcome = "synthesis_failed"
	OutcomePlaybackFailed    Outcome = "playback_failed"
	OutcomeCancelled         Outcome = "cancelled"
)

// ErrAlreadyRunning is returned by Run when the loop is already active.
var ErrAlreadyRunning = errors.New("pipeline already running")

// errStagePanic marks a recovered panic inside a stage.
var errStagePanic = errors.New("stage panicked")

// UtteranceReport summarises one pass through the loop.
type UtteranceReport struct {
	ID             string
	Outcome        Outcome
	States         []State
	Transcript     string
	Translation    string
	DetectedSource string
	Err            error
	Started        time.Time
	Duration       time.Duration
}

// Config holds the static languages and capture limits of the loop.
type Config struct {
	SourceLanguage    string
	TargetLanguage    string
	ListenTimeout     time.Duration
	PhraseLimit       time.Duration
	SlowSpeech        bool
	CaptureRetryDelay time.Duration // pause after a capture device error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver receives every finished report except the final cancelled one.
func WithObserver(fn func(context.Context, UtteranceReport)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// Orchestrator drives the loop. Utterances are processed strictly one at a
// time; only cancellation of the Run context ends it.
type Orchestrator struct {
	capture    Capture
	recognizer Recognizer
	translator Translator
	synth      Synthesizer
	playback   Playback
	cfg        Config
	observer   func(context.Context, UtteranceReport)
	machine    *Machine
	running    atomic.Bool
}

// New validates the configuration and the state table.
func New(capture Capture, recognizer Recognizer, translator Translator, synth Synthesizer, playback Playback, cfg Config, opts ...Option) (*Orchestrator, error) {
	if capture == nil || recognizer == nil || translator == nil || synth == nil || playback == nil {
		return nil, errors.New("pipeline: capture, recognizer, translator, synthesizer and playback are required")
	}

	cfg.SourceLanguage = language.Normalize(cfg.SourceLanguage)
	cfg.TargetLanguage = language.Normalize(cfg.TargetLanguage)
	if cfg.SourceLanguage == "" || cfg.SourceLanguage == language.Auto {
		return nil, fmt.Errorf("pipeline: an explicit source language is required, got %q", cfg.SourceLanguage)
	}
	if cfg.TargetLanguage == "" {
		return nil, errors.New("pipeline: target language is required")
	}
	if cfg.CaptureRetryDelay <= 0 {
		cfg.CaptureRetryDelay = time.Second
	}

	machine, err := NewMachine(transitions)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	o := &Orchestrator{
		capture:    capture,
		recognizer: recognizer,
		translator: translator,
		synth:      synth,
		playback:   playback,
		cfg:        cfg,
		machine:    machine,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// State returns the loop's current state.
func (o *Orchestrator) State() State {
	return o.machine.State()
}

// Run loops until ctx is cancelled. Per-utterance failures are logged and
// the loop returns to listening. It returns nil on cancellation.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer o.running.Store(false)
	o.machine.Reset(StateIdle)

	slog.InfoContext(ctx, "pipeline: started",
		slog.String("source", o.cfg.SourceLanguage),
		slog.String("target", o.cfg.TargetLanguage))

	for {
		report := o.runUtterance(ctx)
		if report.Outcome == OutcomeCancelled {
			slog.InfoContext(context.WithoutCancel(ctx), "pipeline: stopped")
			return nil
		}
		o.notify(ctx, report)
	}
}

func (o *Orchestrator) runUtterance(ctx context.Context) (rep UtteranceReport) {
	rep = UtteranceReport{ID: xid.New().String(), Started: time.Now()}
	defer func() { rep.Duration = time.Since(rep.Started) }()

	// 1. Listen.
	if !o.enter(ctx, &rep, StateListening) {
		return o.stop(rep)
	}
	pcm, err := guard(func() ([]byte, error) {
		return o.capture.Listen(ctx, o.cfg.ListenTimeout, o.cfg.PhraseLimit)
	})
	if err != nil {
		if ctx.Err() != nil {
			return o.stop(rep)
		}
		if errors.Is(err, audio.ErrListenTimeout) {
			return o.drop(ctx, rep, OutcomeNoSpeech, err)
		}
		rep = o.drop(ctx, rep, OutcomeCaptureFailed, err)
		if sleepContext(ctx, o.cfg.CaptureRetryDelay) != nil {
			return o.stop(rep)
		}
		return rep
	}

	// 2. Transcribe.
	if !o.enter(ctx, &rep, StateTranscribing) {
		return o.stop(rep)
	}
	text, err := guard(func() (string, error) {
		return o.recognizer.Recognize(ctx, pcm, o.cfg.SourceLanguage)
	})
	if err != nil {
		if ctx.Err() != nil {
			return o.stop(rep)
		}
		if errors.Is(err, engine.ErrNotUnderstood) {
			return o.drop(ctx, rep, OutcomeNotUnderstood, err)
		}
		return o.drop(ctx, rep, OutcomeRecognitionFailed, err)
	}
	rep.Transcript = text
	slog.InfoContext(ctx, "pipeline: heard",
		slog.String("utterance_id", rep.ID),
		slog.String("text", text))

	// 3. Translate.
	if !o.enter(ctx, &rep, StateTranslating) {
		return o.stop(rep)
	}
	res, err := guard(func() (translate.Result, error) {
		return o.translator.Translate(ctx, text, o.cfg.SourceLanguage, o.cfg.TargetLanguage)
	})
	if err != nil {
		if ctx.Err() != nil {
			return o.stop(rep)
		}
		return o.drop(ctx, rep, OutcomeTranslationFailed, err)
	}
	rep.Translation = res.Text
	rep.DetectedSource = res.DetectedSource

	// 4. Synthesize.
	if !o.enter(ctx, &rep, StateSynthesizing) {
		return o.stop(rep)
	}
	clip, err := guard(func() (engine.Audio, error) {
		return o.synth.Synthesize(ctx, res.Text, o.cfg.TargetLanguage, o.cfg.SlowSpeech)
	})
	if err != nil {
		if ctx.Err() != nil {
			return o.stop(rep)
		}
		return o.drop(ctx, rep, OutcomeSynthesisFailed, err)
	}

	// 5. Play.
	if !o.enter(ctx, &rep, StatePlaying) {
		return o.stop(rep)
	}
	if _, err := guard(func() (struct{}, error) {
		return struct{}{}, o.playback.Play(ctx, clip)
	}); err != nil {
		if ctx.Err() != nil {
			return o.stop(rep)
		}
		return o.drop(ctx, rep, OutcomePlaybackFailed, err)
	}

	rep.Outcome = OutcomeCompleted
	slog.InfoContext(ctx, "pipeline: utterance completed",
		slog.String("utterance_id", rep.ID),
		slog.String("translation", rep.Translation))
	return rep
}

// enter moves to next unless ctx is already cancelled.
func (o *Orchestrator) enter(ctx context.Context, rep *UtteranceReport, next State) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := o.machine.Transition(next); err != nil {
		slog.ErrorContext(ctx, "pipeline: state machine out of step",
			slog.String("utterance_id", rep.ID),
			slog.String("error", err.Error()))
		o.machine.Reset(next)
	}
	rep.States = append(rep.States, next)
	return true
}

func (o *Orchestrator) stop(rep UtteranceReport) UtteranceReport {
	_ = o.machine.Transition(StateStopped)
	rep.States = append(rep.States, StateStopped)
	rep.Outcome = OutcomeCancelled
	return rep
}

func (o *Orchestrator) drop(ctx context.Context, rep UtteranceReport, outcome Outcome, err error) UtteranceReport {
	_ = o.machine.Transition(StateIdle)
	rep.States = append(rep.States, StateIdle)
	rep.Outcome = outcome
	rep.Err = err

	attrs := []any{
		slog.String("utterance_id", rep.ID),
		slog.String("outcome", string(outcome)),
		slog.String("error", err.Error()),
	}
	switch outcome {
	case OutcomeNoSpeech:
		slog.DebugContext(ctx, "pipeline: no speech detected", attrs...)
	case OutcomeNotUnderstood:
		slog.InfoContext(ctx, "pipeline: could not understand audio", attrs...)
	default:
		slog.WarnContext(ctx, "pipeline: utterance dropped", attrs...)
	}
	return rep
}

func (o *Orchestrator) notify(ctx context.Context, rep UtteranceReport) {
	if o.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "pipeline: observer panicked", slog.Any("panic", r))
		}
	}()
	o.observer(ctx, rep)
}

// guard runs one stage and converts a panic into an error.
func guard[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errStagePanic, r)
		}
	}()
	return fn()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
