package reply

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pcastro/parley/internal/config"
)

// OpenAI calls the chat-completion endpoint through go-openai.
type OpenAI struct {
	client *openai.Client
	model  string
	tokens int
	temp   float32
}

func NewOpenAI(cfg config.ProviderConfig) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(cfg.ResolveAPIKey()),
		model:  cfg.Model,
		tokens: cfg.MaxTokens,
		temp:   float32(cfg.Temperature),
	}
}

func (o *OpenAI) Reply(ctx context.Context, prompt string) string {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   o.tokens,
		Temperature: o.temp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return FallbackError
	}
	if len(resp.Choices) == 0 {
		return FallbackEmpty
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return FallbackEmpty
	}
	return text
}
