package openai

import (
	"context"
	"encoding/json"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/voicetyped/voxlate/internal/speech/engine"
)

const translatePrompt = `You are a translation engine. Translate the user's message from %s to the language with code %q.
Respond with a JSON object {"translation": "...", "detected_source": "<ISO 639-1 code of the input>"} and nothing else.`

type chatTranslation struct {
	Translation    string `json:"translation"`
	DetectedSource string `json:"detected_source"`
}

// OpenAITranslate implements MTEngine with a chat completion model.
type OpenAITranslate struct {
	client *goopenai.Client
	model  string
}

func (o *OpenAITranslate) Translate(ctx context.Context, text, source, target string) (engine.MTResult, error) {
	from := fmt.Sprintf("the language with code %q", source)
	if source == engine.AutoDetect {
		from = "whatever language it is written in"
	}

	resp, err := o.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: o.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: fmt.Sprintf(translatePrompt, from, target)},
			{Role: goopenai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return engine.MTResult{}, classify("openai translate", err)
	}
	if len(resp.Choices) == 0 {
		return engine.MTResult{}, nil
	}

	var out chatTranslation
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return engine.MTResult{}, engine.Transient("openai translate", fmt.Errorf("bad response content: %w", err))
	}

	res := engine.MTResult{Text: out.Translation}
	if source == engine.AutoDetect {
		res.DetectedSource = out.DetectedSource
	}
	return res, nil
}

func (o *OpenAITranslate) Close() error {
	return nil
}
