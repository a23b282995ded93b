package openai

import (
	"context"
	"fmt"
	"io"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/voicetyped/voxlate/internal/speech/engine"
)

// OpenAI speech with the pcm format is 24kHz 16-bit mono.
const speechSampleRate = 24000

// OpenAITTS implements TTSEngine using the OpenAI-compatible speech API.
// Voices are multilingual; the language follows the input text.
type OpenAITTS struct {
	client *goopenai.Client
	model  goopenai.SpeechModel
	voice  goopenai.SpeechVoice
}

func (o *OpenAITTS) Synthesize(ctx context.Context, text, _ string, slow bool) (engine.Audio, error) {
	req := goopenai.CreateSpeechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: goopenai.SpeechResponseFormatPcm,
	}
	if slow {
		req.Speed = 0.75
	}

	resp, err := o.client.CreateSpeech(ctx, req)
	if err != nil {
		return engine.Audio{}, classify("openai TTS", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return engine.Audio{}, fmt.Errorf("openai TTS read: %w", err)
	}
	return engine.Audio{Data: pcm, Format: engine.FormatPCM, SampleRate: speechSampleRate}, nil
}

func (o *OpenAITTS) Voices() []engine.Voice {
	return []engine.Voice{
		{ID: "alloy", Name: "Alloy"},
		{ID: "echo", Name: "Echo"},
		{ID: "fable", Name: "Fable"},
		{ID: "onyx", Name: "Onyx"},
		{ID: "nova", Name: "Nova"},
		{ID: "shimmer", Name: "Shimmer"},
	}
}

func (o *OpenAITTS) Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: "tts-1", DisplayName: "TTS 1", IsDefault: true},
		{ID: "tts-1-hd", DisplayName: "TTS 1 HD"},
	}
}

func (o *OpenAITTS) Close() error {
	return nil
}
