// Package translate wraps a machine translation backend with bounded
// retries, exponential backoff and an optional circuit breaker.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voicetyped/voxlate/internal/language"
	"github.com/voicetyped/voxlate/internal/speech/engine"
)

// Defaults applied to zero Config fields.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = time.Second
)

var (
	// ErrEmptyText is returned without calling the backend when the input
	// is blank.
	ErrEmptyText = &engine.Error{Kind: engine.KindValidation, Op: "translate", Err: errors.New("text is empty")}

	// ErrRetriesExhausted wraps the last transient failure once every
	// attempt has been used.
	ErrRetriesExhausted = errors.New("translation retries exhausted")

	// ErrNonRetryable wraps a failure that was not worth retrying.
	ErrNonRetryable = errors.New("translation failed permanently")

	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("translation backend circuit open")
)

// Result is a successful translation. DetectedSource is only set when the
// caller asked for auto-detection and the backend reported a language.
type Result struct {
	Text           string
	DetectedSource string
}

// Config tunes the retry policy.
type Config struct {
	MaxRetries     int
	InitialDelay   time.Duration
	AttemptTimeout time.Duration // per-call bound; zero means none
}

// Translator is safe for concurrent use; backoff only blocks the caller.
type Translator struct {
	engine  engine.MTEngine
	cfg     Config
	breaker *Breaker
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures a Translator.
type Option func(*Translator)

// WithBreaker guards the backend with b.
func WithBreaker(b *Breaker) Option {
	return func(t *Translator) { t.breaker = b }
}

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Translator) { t.sleep = fn }
}

// New creates a Translator around eng.
func New(eng engine.MTEngine, cfg Config, opts ...Option) *Translator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	t := &Translator{engine: eng, cfg: cfg, sleep: sleepContext}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Backoff returns the wait after the given 1-indexed failed attempt.
func (t *Translator) Backoff(attempt int) time.Duration {
	return t.cfg.InitialDelay * time.Duration(1<<(attempt-1))
}

// Translate translates text from source (a code or "auto") to target.
// On failure the Result is zero and the error wraps ErrEmptyText,
// ErrNonRetryable, ErrRetriesExhausted or the context error.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyText
	}
	source = language.Normalize(source)
	target = language.Normalize(target)

	var lastErr error
	for attempt := 1; attempt <= t.cfg.MaxRetries; attempt++ {
		res, err := t.attempt(ctx, text, source, target)
		if err == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "translate: succeeded after retry", slog.Int("attempt", attempt))
			}
			return res, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}

		if !engine.IsTransient(err) {
			slog.ErrorContext(ctx, "translate: non-retryable failure",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return Result{}, fmt.Errorf("%w: %w", ErrNonRetryable, err)
		}

		if attempt == t.cfg.MaxRetries {
			break
		}

		delay := t.Backoff(attempt)
		slog.WarnContext(ctx, "translate: transient failure, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("error", err.Error()))
		if err := t.sleep(ctx, delay); err != nil {
			return Result{}, err
		}
	}

	slog.ErrorContext(ctx, "translate: retries exhausted",
		slog.Int("attempts", t.cfg.MaxRetries),
		slog.String("error", lastErr.Error()))
	return Result{}, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, t.cfg.MaxRetries, lastErr)
}

func (t *Translator) attempt(ctx context.Context, text, source, target string) (Result, error) {
	if t.breaker != nil && !t.breaker.Allow() {
		return Result{}, engine.Fatal("translate", ErrCircuitOpen)
	}

	callCtx := ctx
	if t.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.cfg.AttemptTimeout)
		defer cancel()
	}

	out, err := t.engine.Translate(callCtx, text, source, target)
	if err == nil && strings.TrimSpace(out.Text) == "" {
		err = engine.ErrEmptyResult
	}
	t.record(err)
	if err != nil {
		return Result{}, err
	}

	res := Result{Text: out.Text}
	if source == language.Auto && out.DetectedSource != "" {
		res.DetectedSource = language.Normalize(out.DetectedSource)
	}
	return res, nil
}

// record feeds the breaker. Only transient failures count against the
// backend's health.
func (t *Translator) record(err error) {
	if t.breaker == nil {
		return
	}
	switch {
	case err == nil:
		t.breaker.RecordSuccess()
	case engine.IsTransient(err):
		t.breaker.RecordFailure()
	}
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
