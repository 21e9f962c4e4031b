package llm

import (
	"context"
	"errors"
)

// ErrEmptyResult is returned when a backend answers without any generation.
var ErrEmptyResult = errors.New("no generations returned")

// GenerateParams holds parameters for a single generation call.
type GenerateParams struct {
	// MaxLength is the maximum output length in backend tokens.
	MaxLength int
}

// Generation is one generated text, in the shape of a text-generation pipeline item.
type Generation struct {
	GeneratedText string `json:"generated_text"`
}

// Result is the value returned by a backend. It is serialized as-is in responses.
type Result []Generation

// Backend is a text-generation capability initialized once at startup.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Generate produces text for prompt.
	Generate(ctx context.Context, prompt string, params GenerateParams) (Result, error)
	// Provider returns the provider name, e.g. "openai".
	Provider() string
	// Close releases resources held by the backend.
	Close() error
}
