package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic"
)

// AnthropicBackend generates text with the Anthropic Messages API.
type AnthropicBackend struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicBackend creates an Anthropic backend. An empty baseURL keeps the
// library default.
func NewAnthropicBackend(baseURL, apiKey, model string) *AnthropicBackend {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicBackend{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// Provider implements Backend.
func (b *AnthropicBackend) Provider() string { return "anthropic" }

// Close implements Backend.
func (b *AnthropicBackend) Close() error { return nil }

// Generate implements Backend.
func (b *AnthropicBackend) Generate(ctx context.Context, prompt string, params GenerateParams) (Result, error) {
	resp, err := b.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: b.model,
		Messages: []anthropic.Message{
			{
				Role: "user",
				Content: []anthropic.MessageContent{
					{Type: "text", Text: &prompt},
				},
			},
		},
		MaxTokens: params.MaxLength,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	var sb strings.Builder
	for _, content := range resp.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, ErrEmptyResult
	}
	return Result{{GeneratedText: sb.String()}}, nil
}
