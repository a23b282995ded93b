package translate

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voicetyped/voxlate/internal/speech/engine"
)

type reply struct {
	res engine.MTResult
	err error
}

// scriptedMT returns replies in order, repeating the last one.
type scriptedMT struct {
	mu      sync.Mutex
	replies []reply
	calls   int
	sources []string
}

func (s *scriptedMT) Translate(_ context.Context, _, source, _ string) (engine.MTResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := min(s.calls, len(s.replies)-1)
	s.calls++
	s.sources = append(s.sources, source)
	return s.replies[i].res, s.replies[i].err
}

func (s *scriptedMT) Close() error { return nil }

func (s *scriptedMT) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordSleep captures backoff waits without sleeping.
type recordSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

var errTimeout = errors.New("request timeout")

func newTranslator(mt engine.MTEngine, opts ...Option) (*Translator, *recordSleep) {
	rs := &recordSleep{}
	opts = append([]Option{WithSleep(rs.sleep)}, opts...)
	return New(mt, Config{MaxRetries: 3, InitialDelay: 100 * time.Millisecond}, opts...), rs
}

func TestTranslateSuccess(t *testing.T) {
	mt := &scriptedMT{replies: []reply{{res: engine.MTResult{Text: "Hola", DetectedSource: "en"}}}}
	tr, rs := newTranslator(mt)

	res, err := tr.Translate(t.Context(), "  Hello ", "EN", "ES")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != "Hola" {
		t.Errorf("Text = %q, want %q", res.Text, "Hola")
	}
	if res.DetectedSource != "" {
		t.Errorf("DetectedSource = %q, want empty for explicit source", res.DetectedSource)
	}
	if mt.Calls() != 1 || len(rs.delays) != 0 {
		t.Errorf("calls = %d, sleeps = %v", mt.Calls(), rs.delays)
	}
	if mt.sources[0] != "en" {
		t.Errorf("source passed to backend = %q, want normalized", mt.sources[0])
	}
}

func TestTranslateAutoDetect(t *testing.T) {
	mt := &scriptedMT{replies: []reply{{res: engine.MTResult{Text: "Hello", DetectedSource: "FR"}}}}
	tr, _ := newTranslator(mt)

	res, err := tr.Translate(t.Context(), "Bonjour", "auto", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.DetectedSource != "fr" {
		t.Errorf("DetectedSource = %q, want fr", res.DetectedSource)
	}
}

func TestTranslateEmptyTextMakesNoCalls(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		mt := &scriptedMT{replies: []reply{{res: engine.MTResult{Text: "x"}}}}
		tr, _ := newTranslator(mt)

		res, err := tr.Translate(t.Context(), text, "en", "es")
		if !errors.Is(err, ErrEmptyText) {
			t.Errorf("Translate(%q) err = %v, want ErrEmptyText", text, err)
		}
		if engine.KindOf(err) != engine.KindValidation {
			t.Errorf("kind = %s, want validation", engine.KindOf(err))
		}
		if res != (Result{}) || mt.Calls() != 0 {
			t.Errorf("res = %+v, calls = %d", res, mt.Calls())
		}
	}
}

func TestTranslateRecoversFromTransient(t *testing.T) {
	mt := &scriptedMT{replies: []reply{
		{err: errTimeout},
		{err: errTimeout},
		{res: engine.MTResult{Text: "Bonjour"}},
	}}
	tr, rs := newTranslator(mt)

	res, err := tr.Translate(t.Context(), "Hello", "en", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != "Bonjour" {
		t.Errorf("Text = %q", res.Text)
	}
	if mt.Calls() != 3 {
		t.Errorf("calls = %d, want 3", mt.Calls())
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if !slices.Equal(rs.delays, want) {
		t.Errorf("delays = %v, want %v", rs.delays, want)
	}
}

func TestTranslateExhaustsRetries(t *testing.T) {
	mt := &scriptedMT{replies: []reply{{err: errors.New("Too Many Requests")}}}
	tr, rs := newTranslator(mt)

	res, err := tr.Translate(t.Context(), "Hello", "en", "fr")
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("err = %v, want ErrRetriesExhausted", err)
	}
	if res != (Result{}) {
		t.Errorf("res = %+v, want zero", res)
	}
	if mt.Calls() != 3 {
		t.Errorf("calls = %d, want 3", mt.Calls())
	}
	// No wait after the final attempt.
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if !slices.Equal(rs.delays, want) {
		t.Errorf("delays = %v, want %v", rs.delays, want)
	}
}

func TestTranslateFatalAbortsImmediately(t *testing.T) {
	fatal := errors.New("invalid destination language")
	mt := &scriptedMT{replies: []reply{{err: fatal}, {res: engine.MTResult{Text: "never"}}}}
	tr, rs := newTranslator(mt)

	res, err := tr.Translate(t.Context(), "Hello", "en", "zz")
	if !errors.Is(err, ErrNonRetryable) || !errors.Is(err, fatal) {
		t.Fatalf("err = %v, want ErrNonRetryable wrapping cause", err)
	}
	if res != (Result{}) || mt.Calls() != 1 || len(rs.delays) != 0 {
		t.Errorf("res = %+v, calls = %d, delays = %v", res, mt.Calls(), rs.delays)
	}
}

func TestTranslateEmptyPayloadIsRetried(t *testing.T) {
	mt := &scriptedMT{replies: []reply{
		{res: engine.MTResult{Text: "  "}},
		{res: engine.MTResult{Text: "Hallo"}},
	}}
	tr, rs := newTranslator(mt)

	res, err := tr.Translate(t.Context(), "Hello", "en", "de")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != "Hallo" || mt.Calls() != 2 || len(rs.delays) != 1 {
		t.Errorf("res = %+v, calls = %d, delays = %v", res, mt.Calls(), rs.delays)
	}
}

func TestTranslateCancelledDuringBackoff(t *testing.T) {
	mt := &scriptedMT{replies: []reply{{err: errTimeout}}}
	ctx, cancel := context.WithCancel(t.Context())
	tr := New(mt, Config{MaxRetries: 3, InitialDelay: time.Hour}, WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}))

	_, err := tr.Translate(ctx, "Hello", "en", "fr")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if mt.Calls() != 1 {
		t.Errorf("calls = %d, want 1", mt.Calls())
	}
}

func TestTranslateAttemptTimeoutIsTransient(t *testing.T) {
	var calls atomic.Int32
	mt := mtFunc(func(ctx context.Context) (engine.MTResult, error) {
		if calls.Add(1) == 1 {
			<-ctx.Done()
			return engine.MTResult{}, ctx.Err()
		}
		return engine.MTResult{Text: "ok"}, nil
	})
	rs := &recordSleep{}
	tr := New(mt, Config{MaxRetries: 2, InitialDelay: time.Millisecond, AttemptTimeout: 10 * time.Millisecond}, WithSleep(rs.sleep))

	res, err := tr.Translate(t.Context(), "Hello", "en", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != "ok" || calls.Load() != 2 {
		t.Errorf("res = %+v, calls = %d", res, calls.Load())
	}
}

func TestTranslateBreakerFailsFast(t *testing.T) {
	mt := &scriptedMT{replies: []reply{{err: errTimeout}}}
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	tr, _ := newTranslator(mt, WithBreaker(b))

	_, err := tr.Translate(t.Context(), "Hello", "en", "fr")
	if !errors.Is(err, ErrNonRetryable) || !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want open circuit", err)
	}
	if mt.Calls() != 2 {
		t.Errorf("calls = %d, want 2 before the breaker opened", mt.Calls())
	}

	_, err = tr.Translate(t.Context(), "Hello", "en", "fr")
	if !errors.Is(err, ErrCircuitOpen) || mt.Calls() != 2 {
		t.Errorf("err = %v, calls = %d", err, mt.Calls())
	}
}

func TestTranslateConcurrent(t *testing.T) {
	mt := &scriptedMT{replies: []reply{{res: engine.MTResult{Text: "x"}}}}
	tr, _ := newTranslator(mt)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tr.Translate(t.Context(), "hi", "en", "es"); err != nil {
				t.Errorf("Translate: %v", err)
			}
		}()
	}
	wg.Wait()
	if mt.Calls() != 32 {
		t.Errorf("calls = %d, want 32", mt.Calls())
	}
}

func TestBackoff(t *testing.T) {
	tr := New(nil, Config{InitialDelay: time.Second})
	for attempt, want := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 3: 4 * time.Second} {
		if got := tr.Backoff(attempt); got != want {
			t.Errorf("Backoff(%d) = %v, want %v", attempt, got, want)
		}
	}
	if tr.cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want default", tr.cfg.MaxRetries)
	}
}

type mtFunc func(ctx context.Context) (engine.MTResult, error)

func (f mtFunc) Translate(ctx context.Context, _, _, _ string) (engine.MTResult, error) {
	return f(ctx)
}

func (f mtFunc) Close() error { return nil }
