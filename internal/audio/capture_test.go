package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"
)

// frames builds n frames of constant amplitude.
func frames(cfg VADConfig, n int, amplitude int16) []byte {
	out := make([]byte, n*cfg.FrameBytes())
	for i := 0; i+1 < len(out); i += 2 {
		binary.LittleEndian.PutUint16(out[i:], uint16(amplitude))
	}
	return out
}

func TestVADEvents(t *testing.T) {
	cfg := DefaultVADConfig()
	vad := NewVAD(cfg)
	loud := frames(cfg, 1, 3000)
	quiet := frames(cfg, 1, 0)

	var starts, ends int
	for range 10 {
		if vad.ProcessFrame(loud) == VADSpeechStart {
			starts++
		}
	}
	if !vad.IsSpeaking() {
		t.Fatal("expected speaking after loud frames")
	}
	for range 30 {
		if vad.ProcessFrame(quiet) == VADSpeechEnd {
			ends++
		}
	}
	if starts != 1 || ends != 1 {
		t.Errorf("starts = %d, ends = %d, want 1 and 1", starts, ends)
	}

	vad.ProcessFrame(loud)
	vad.Reset()
	if vad.IsSpeaking() {
		t.Error("Reset should clear speaking state")
	}
}

func TestListenCapturesPhrase(t *testing.T) {
	cfg := DefaultVADConfig()
	var stream bytes.Buffer
	stream.Write(frames(cfg, 10, 0))
	stream.Write(frames(cfg, 20, 4000))
	stream.Write(frames(cfg, 30, 0))
	stream.Write(frames(cfg, 10, 4000))

	l := NewListener(&stream, cfg)
	pcm, err := l.Listen(t.Context(), 5*time.Second, 5*time.Second)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if len(pcm) == 0 || len(pcm)%cfg.FrameBytes() != 0 {
		t.Fatalf("utterance length = %d", len(pcm))
	}
	if got := int16(binary.LittleEndian.Uint16(pcm[len(pcm)-cfg.FrameBytes():])); got != 0 {
		t.Errorf("utterance should end on trailing silence, got amplitude %d", got)
	}
	speechFrames := 0
	for i := 0; i < len(pcm); i += cfg.FrameBytes() {
		if int16(binary.LittleEndian.Uint16(pcm[i:])) != 0 {
			speechFrames++
		}
	}
	if speechFrames != 20 {
		t.Errorf("speech frames in utterance = %d, want 20", speechFrames)
	}
}

func TestListenTimeout(t *testing.T) {
	cfg := DefaultVADConfig()
	l := NewListener(bytes.NewReader(frames(cfg, 200, 0)), cfg)

	_, err := l.Listen(t.Context(), 300*time.Millisecond, 5*time.Second)
	if !errors.Is(err, ErrListenTimeout) {
		t.Errorf("err = %v, want ErrListenTimeout", err)
	}
}

func TestListenPhraseLimit(t *testing.T) {
	cfg := DefaultVADConfig()
	l := NewListener(bytes.NewReader(frames(cfg, 400, 4000)), cfg)

	pcm, err := l.Listen(t.Context(), time.Second, time.Second)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if got := len(pcm) / cfg.FrameBytes(); got > 34 {
		t.Errorf("utterance frames = %d, want about 1s worth", got)
	}
}

func TestListenEOF(t *testing.T) {
	cfg := DefaultVADConfig()
	l := NewListener(bytes.NewReader(frames(cfg, 3, 0)), cfg)
	if _, err := l.Listen(t.Context(), 0, 0); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}

	// Speech still in progress at EOF is returned as the utterance.
	l = NewListener(bytes.NewReader(frames(cfg, 20, 4000)), cfg)
	pcm, err := l.Listen(t.Context(), 0, 0)
	if err != nil || len(pcm) == 0 {
		t.Errorf("Listen = %d bytes, %v", len(pcm), err)
	}
}

func TestListenCancelled(t *testing.T) {
	cfg := DefaultVADConfig()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	l := NewListener(bytes.NewReader(frames(cfg, 10, 0)), cfg)
	if _, err := l.Listen(ctx, time.Second, time.Second); err == nil {
		t.Error("expected context error")
	}
}

func TestListenStalledSource(t *testing.T) {
	cfg := DefaultVADConfig()

	tests := []struct {
		name    string
		ctx     func(t *testing.T) context.Context
		timeout time.Duration
		wantErr error
	}{
		{
			name:    "listen timeout",
			ctx:     func(t *testing.T) context.Context { return t.Context() },
			timeout: 100 * time.Millisecond,
			wantErr: ErrListenTimeout,
		},
		{
			name: "cancellation",
			ctx: func(t *testing.T) context.Context {
				ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
				t.Cleanup(cancel)
				return ctx
			},
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, w := io.Pipe()
			l := NewListener(r, cfg)
			t.Cleanup(func() {
				l.Stop()
				w.Close()
			})

			done := make(chan error, 1)
			go func() {
				_, err := l.Listen(tc.ctx(t), tc.timeout, time.Second)
				done <- err
			}()

			select {
			case err := <-done:
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("err = %v, want %v", err, tc.wantErr)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Listen stayed blocked on a stalled source")
			}
		})
	}
}

func TestListenStalledMidPhrase(t *testing.T) {
	cfg := DefaultVADConfig()
	r, w := io.Pipe()
	l := NewListener(r, cfg)
	t.Cleanup(func() {
		l.Stop()
		w.Close()
	})

	go w.Write(frames(cfg, 8, 4000))

	done := make(chan []byte, 1)
	go func() {
		pcm, _ := l.Listen(t.Context(), time.Second, 300*time.Millisecond)
		done <- pcm
	}()

	select {
	case pcm := <-done:
		if len(pcm) == 0 {
			t.Error("expected the speech captured before the stall")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Listen ignored the phrase limit on a stalled source")
	}
}

func TestStartRecorder(t *testing.T) {
	cfg := DefaultVADConfig()
	if _, err := StartRecorder(t.Context(), "  ", cfg); err == nil {
		t.Error("expected error for empty command")
	}

	// head emits a bounded stream of zero bytes, i.e. pure silence.
	rec, err := StartRecorder(t.Context(), "head -c 96000 /dev/zero", cfg)
	if err != nil {
		t.Fatalf("StartRecorder: %v", err)
	}
	defer rec.Close()

	if _, err := rec.Listen(t.Context(), time.Second, time.Second); !errors.Is(err, ErrListenTimeout) {
		t.Errorf("err = %v, want ErrListenTimeout", err)
	}
}
