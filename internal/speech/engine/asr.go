package engine

import (
	"context"
	"errors"
)

// ErrNotUnderstood is returned by Recognize when audio was received but no
// transcript could be produced from it.
var ErrNotUnderstood = errors.New("speech not understood")

// ASRResult represents a speech-to-text result for one utterance.
type ASRResult struct {
	Text       string
	Confidence float32
	Language   string
}

// ModelInfo describes an available model for a backend.
type ModelInfo struct {
	ID          string
	DisplayName string
	IsDefault   bool
}

// ASREngine transcribes a complete utterance of 16 kHz mono 16-bit PCM.
type ASREngine interface {
	Recognize(ctx context.Context, pcm []byte, language string) (ASRResult, error)
	Models() []ModelInfo
	Close() error
}
