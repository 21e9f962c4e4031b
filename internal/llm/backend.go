package llm

import (
	"context"
	"fmt"
)

// Options selects and configures a Backend.
type Options struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	// APIType only applies to the openai provider.
	APIType string
}

// NewBackend builds the backend named by opts.Provider.
func NewBackend(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Provider {
	case "openai":
		return NewOpenAIBackend(opts.BaseURL, opts.APIKey, opts.Model, opts.APIType), nil
	case "anthropic":
		return NewAnthropicBackend(opts.BaseURL, opts.APIKey, opts.Model), nil
	case "gemini":
		backend, err := NewGeminiBackend(ctx, opts.BaseURL, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case "echo":
		return NewEchoBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", opts.Provider)
	}
}
