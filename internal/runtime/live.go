package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/voicetyped/voxlate/config"
	"github.com/voicetyped/voxlate/internal/audio"
	"github.com/voicetyped/voxlate/internal/pipeline"
)

// RunLive captures from the configured recorder and runs the continuous
// loop until ctx is cancelled.
func RunLive(ctx context.Context, settings config.PipelineSettings, s *Stack, opts ...pipeline.Option) error {
	if s.Recognizer == nil {
		return errors.New("live mode needs a speech recognition backend")
	}
	for _, code := range []string{settings.SourceLanguage, settings.TargetLanguage} {
		if !s.Catalog.Has(code) {
			return fmt.Errorf("live mode: unsupported language %q", code)
		}
	}
	slog.InfoContext(ctx, "runtime: starting live loop",
		slog.String("source", settings.SourceLanguage),
		slog.String("target", settings.TargetLanguage),
		slog.String("asr_model", DefaultModel(s.Recognizer.Models())),
		slog.String("tts_model", DefaultModel(s.Synth.Models())))

	capture := newRestartingCapture(func(ctx context.Context) (recorder, error) {
		return audio.StartRecorder(ctx, settings.RecorderCommand, settings.VADConfig())
	})
	defer capture.Close()

	player := audio.NewPlayer(settings.PlayerPCMCommand, settings.PlayerCommand)
	orch, err := pipeline.New(capture, s.Recognizer, s.Translator, s.Synth, player, settings.OrchestratorConfig(), opts...)
	if err != nil {
		return err
	}
	return orch.Run(ctx)
}

type recorder interface {
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]byte, error)
	Close() error
}

// restartingCapture starts the recorder lazily and replaces it after the
// capture stream ends, so a crashed recorder process does not end the loop.
type restartingCapture struct {
	start func(ctx context.Context) (recorder, error)

	mu  sync.Mutex
	rec recorder
}

func newRestartingCapture(start func(ctx context.Context) (recorder, error)) *restartingCapture {
	return &restartingCapture{start: start}
}

func (c *restartingCapture) Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rec == nil {
		// The recorder must outlive this call, so it is bound to ctx without
		// its deadline.
		rec, err := c.start(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("start capture: %w", err)
		}
		c.rec = rec
	}

	pcm, err := c.rec.Listen(ctx, timeout, phraseLimit)
	if errors.Is(err, io.EOF) {
		slog.WarnContext(ctx, "runtime: capture stream ended, restarting recorder")
		c.closeLocked()
	}
	return pcm, err
}

func (c *restartingCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *restartingCapture) closeLocked() error {
	if c.rec == nil {
		return nil
	}
	err := c.rec.Close()
	c.rec = nil
	return err
}
