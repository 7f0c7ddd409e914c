package generate

import (
	"context"
	"errors"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// LLMClient abstracts the generative text model so the agent can be tested
// offline and the fallback path exercised without network access.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAIClient implements LLMClient with the official openai-go SDK.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient returns nil when no API key is configured. A nil client
// means the model is unavailable and the template fallback applies.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if apiKey == "" {
		return nil
	}
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
