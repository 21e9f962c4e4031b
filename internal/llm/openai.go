package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend talks to any OpenAI-compatible server (llama.cpp, vLLM, OpenAI).
type OpenAIBackend struct {
	client  *openai.Client
	model   string
	apiType string
}

// NewOpenAIBackend creates a backend for an OpenAI-compatible API.
// apiType is "chat_completions" or "completions".
func NewOpenAIBackend(baseURL, apiKey, model, apiType string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		apiType: apiType,
	}
}

// Provider implements Backend.
func (b *OpenAIBackend) Provider() string { return "openai" }

// Close implements Backend.
func (b *OpenAIBackend) Close() error { return nil }

// Generate implements Backend.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string, params GenerateParams) (Result, error) {
	if b.apiType == "completions" {
		return b.generateCompletions(ctx, prompt, params)
	}
	return b.generateChatCompletions(ctx, prompt, params)
}

func (b *OpenAIBackend) generateChatCompletions(ctx context.Context, prompt string, params GenerateParams) (Result, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: params.MaxLength,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	result := make(Result, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		result = append(result, Generation{GeneratedText: choice.Message.Content})
	}
	if len(result) == 0 {
		return nil, ErrEmptyResult
	}
	return result, nil
}

// generateCompletions uses the plain completions endpoint. The prompt is
// prepended to each continuation so callers get the full text back.
func (b *OpenAIBackend) generateCompletions(ctx context.Context, prompt string, params GenerateParams) (Result, error) {
	resp, err := b.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:     b.model,
		Prompt:    prompt,
		MaxTokens: params.MaxLength,
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	result := make(Result, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		result = append(result, Generation{GeneratedText: prompt + choice.Text})
	}
	if len(result) == 0 {
		return nil, ErrEmptyResult
	}
	return result, nil
}
