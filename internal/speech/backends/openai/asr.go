package openai

import (
	"bytes"
	"context"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/voicetyped/voxlate/internal/audio"
	"github.com/voicetyped/voxlate/internal/speech/engine"
)

// OpenAIASR implements ASREngine using the OpenAI-compatible transcription API.
type OpenAIASR struct {
	client *goopenai.Client
	model  string
}

func (o *OpenAIASR) Recognize(ctx context.Context, pcm []byte, language string) (engine.ASRResult, error) {
	// The transcription endpoint needs a container format.
	wav := audio.EncodeWAV(pcm, audio.CaptureSampleRate)

	resp, err := o.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    o.model,
		Reader:   bytes.NewReader(wav),
		FilePath: "audio.wav",
		Language: language,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return engine.ASRResult{}, classify("openai ASR", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return engine.ASRResult{}, engine.ErrNotUnderstood
	}
	return engine.ASRResult{Text: text, Confidence: 0.9, Language: resp.Language}, nil
}

func (o *OpenAIASR) Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: goopenai.Whisper1, DisplayName: "Whisper 1", IsDefault: true},
	}
}

func (o *OpenAIASR) Close() error {
	return nil
}
