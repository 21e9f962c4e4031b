package llm

import (
	"context"
	"strings"
)

// EchoBackend is an offline backend for local development. It returns the
// first MaxLength words of the prompt.
type EchoBackend struct{}

// NewEchoBackend creates an EchoBackend.
func NewEchoBackend() *EchoBackend {
	return &EchoBackend{}
}

// Provider implements Backend.
func (b *EchoBackend) Provider() string { return "echo" }

// Close implements Backend.
func (b *EchoBackend) Close() error { return nil }

// Generate implements Backend.
func (b *EchoBackend) Generate(ctx context.Context, prompt string, params GenerateParams) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := strings.Fields(prompt)
	if params.MaxLength > 0 && len(words) > params.MaxLength {
		words = words[:params.MaxLength]
	}
	return Result{{GeneratedText: strings.Join(words, " ")}}, nil
}
