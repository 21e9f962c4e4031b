package llm

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiBackend generates text with Google's Gemini API.
// The client is created once and reused across requests.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini backend. An empty baseURL keeps the
// library default endpoint.
func NewGeminiBackend(ctx context.Context, baseURL, apiKey, model string) (*GeminiBackend, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(baseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiBackend{client: client, model: model}, nil
}

// Provider implements Backend.
func (b *GeminiBackend) Provider() string { return "gemini" }

// Close implements Backend.
func (b *GeminiBackend) Close() error { return b.client.Close() }

// Generate implements Backend.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string, params GenerateParams) (Result, error) {
	// GenerativeModel carries per-call settings.
	model := b.client.GenerativeModel(b.model)
	model.SetMaxOutputTokens(maxOutputTokens(params.MaxLength))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}
	return geminiResult(resp)
}

// maxOutputTokens converts a max length to the API's int32 field, saturating
// instead of wrapping.
func maxOutputTokens(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < 0 {
		return 0
	}
	return int32(n)
}

// geminiResult converts a Gemini response into one generation per candidate.
func geminiResult(resp *genai.GenerateContentResponse) (Result, error) {
	if resp == nil {
		return nil, ErrEmptyResult
	}
	var result Result
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		result = append(result, Generation{GeneratedText: sb.String()})
	}
	if len(result) == 0 {
		return nil, ErrEmptyResult
	}
	return result, nil
}
