package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/voicetyped/voxlate/internal/speech/engine"
)

func TestExpandCommand(t *testing.T) {
	got := expandCommand(DefaultPCMPlayerCommand, 24000, 1)
	want := []string{"aplay", "-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", "24000"}
	if !slices.Equal(got, want) {
		t.Errorf("expandCommand = %v, want %v", got, want)
	}
}

func TestPlayPipesPCM(t *testing.T) {
	out := filepath.Join(t.TempDir(), "played.raw")
	p := NewPlayer("tee "+out, "tee "+out)

	pcm := []byte{1, 0, 2, 0}
	tests := []struct {
		name string
		clip engine.Audio
		want []byte
	}{
		{"pcm", engine.Audio{Data: pcm, Format: engine.FormatPCM, SampleRate: 16000}, pcm},
		{"wav is unwrapped", engine.Audio{Data: EncodeWAV(pcm, 24000), Format: engine.FormatWAV}, pcm},
		{"mp3 passes through", engine.Audio{Data: []byte("ID3"), Format: engine.FormatMP3}, []byte("ID3")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Play(t.Context(), tt.clip); err != nil {
				t.Fatalf("Play: %v", err)
			}
			got, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("played %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlayErrors(t *testing.T) {
	p := NewPlayer("", "")
	if err := p.Play(t.Context(), engine.Audio{}); err == nil {
		t.Error("expected error for empty clip")
	}
	if err := p.Play(t.Context(), engine.Audio{Data: []byte("junk"), Format: engine.FormatWAV}); err == nil {
		t.Error("expected error for invalid WAV")
	}

	missing := NewPlayer(filepath.Join(t.TempDir(), "no-player"), "")
	if err := missing.Play(t.Context(), engine.Audio{Data: []byte{0, 0}, Format: engine.FormatPCM}); err == nil {
		t.Error("expected error for missing player binary")
	}
}
