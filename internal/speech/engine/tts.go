package engine

import "context"

// Audio formats produced by TTS backends.
const (
	FormatPCM = "pcm" // 16-bit signed little-endian mono
	FormatWAV = "wav"
	FormatMP3 = "mp3"
)

// Audio is a synthesized clip. SampleRate is only meaningful for PCM.
type Audio struct {
	Data       []byte
	Format     string
	SampleRate int
}

// Empty reports whether the clip carries no audio bytes.
func (a Audio) Empty() bool {
	return len(a.Data) == 0
}

// Voice describes an available TTS voice.
type Voice struct {
	ID       string
	Name     string
	Language string
}

// TTSEngine synthesizes speech from text in the given base language.
type TTSEngine interface {
	Synthesize(ctx context.Context, text, language string, slow bool) (Audio, error)
	Voices() []Voice
	Models() []ModelInfo
	Close() error
}
