package understand

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// PlaceholderCaption is emitted when no captioning model is available or a
// caption call fails. Downstream stages treat it like real content.
const PlaceholderCaption = "gameplay visuals from the provided asset"

// Captioner derives a one-line description of an image.
type Captioner interface {
	Available() bool
	Caption(ctx context.Context, imagePath string) (string, error)
}

// OpenAICaptioner captions images through a vision-capable chat model.
type OpenAICaptioner struct {
	client openai.Client
	model  string
}

// NewOpenAICaptioner returns nil when no API key is configured; a nil
// captioner reads as unavailable and the stage degrades to placeholders.
func NewOpenAICaptioner(apiKey, model string) *OpenAICaptioner {
	if apiKey == "" {
		return nil
	}
	return &OpenAICaptioner{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *OpenAICaptioner) Available() bool { return c != nil }

func (c *OpenAICaptioner) Caption(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", imageMime(imagePath), base64.StdEncoding.EncodeToString(data))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Describe this game screenshot in one short sentence."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("caption model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func imageMime(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
