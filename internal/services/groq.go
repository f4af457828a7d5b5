package services

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// GroqProvider talks to Groq's OpenAI-compatible chat completions endpoint.
type GroqProvider struct {
	client *openai.Client
	model  string
}

func NewGroqProvider(apiKey, model, baseURL string) *GroqProvider {
	if model == "" {
		model = DefaultGroqModel
	}
	if baseURL == "" {
		baseURL = GroqBaseURL
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	)

	return &GroqProvider{client: &client, model: model}
}

func (p *GroqProvider) Name() string  { return "groq" }
func (p *GroqProvider) Model() string { return p.model }

func (p *GroqProvider) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if opts.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(opts.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(p.model),
		Temperature: openai.Float(opts.temperature()),
		MaxTokens:   openai.Int(int64(opts.MaxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("groq chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
