package audio

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/rs/xid"

	"github.com/voicetyped/voxlate/internal/speech/engine"
)

// ErrNotFound is returned by Store.Open for unknown keys.
var ErrNotFound = errors.New("audio not found")

// Store persists synthesized clips and serves them back by key.
type Store interface {
	Save(ctx context.Context, clip engine.Audio) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Close() error
}

// Encode converts a clip into a self-describing file: raw PCM is wrapped in
// a WAV header.
func Encode(clip engine.Audio) (data []byte, ext, contentType string) {
	switch clip.Format {
	case engine.FormatPCM:
		return EncodeWAV(clip.Data, clip.SampleRate), ".wav", "audio/wav"
	case engine.FormatWAV:
		return clip.Data, ".wav", "audio/wav"
	case engine.FormatMP3:
		return clip.Data, ".mp3", "audio/mpeg"
	default:
		return clip.Data, ".bin", "application/octet-stream"
	}
}

func newKey(ext string) string {
	return xid.New().String() + ext
}

// ValidKey reports whether key is a plain object name produced by a store.
func ValidKey(key string) bool {
	return key != "" &&
		len(key) <= 64 &&
		path.Base(key) == key &&
		!strings.HasPrefix(key, ".") &&
		!strings.ContainsAny(key, `\/`)
}
