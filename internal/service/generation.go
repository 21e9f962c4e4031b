package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks llm-api/internal/service Generator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_transcript_store.go -package=mocks llm-api/internal/service TranscriptStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generation_service.go -package=mocks -mock_names=GenerationService=MockGenerationService llm-api/internal/service GenerationService

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"llm-api/internal/contextutil"
	"llm-api/internal/llm"
	"llm-api/internal/metrics"
	"llm-api/internal/storage"
)

// DefaultMaxLength is the maximum output length passed to the generator when none is configured.
const DefaultMaxLength = 100

// Generator is the text-generation capability, defined from the service's perspective.
type Generator interface {
	// Generate produces text for prompt.
	Generate(ctx context.Context, prompt string, params llm.GenerateParams) (llm.Result, error)
}

// TranscriptStore records exchanges. It never influences generation.
type TranscriptStore interface {
	InsertExchange(ctx context.Context, ex storage.Exchange) error
}

// GenerateRequest represents a generation request in the domain layer.
// Question is nil when the client did not send the field.
type GenerateRequest struct {
	Question *string
	// Document is the request body as received. It is only logged.
	Document json.RawMessage
}

// GenerateResponse represents a generation response in the domain layer.
type GenerateResponse struct {
	Result llm.Result
}

// GenerationService forwards questions to the generator.
type GenerationService interface {
	// Generate validates req, calls the generator and returns its result unchanged.
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

// Options configures a GenerationService. Store and Metrics are optional.
type Options struct {
	Provider  string
	MaxLength int
	Timeout   time.Duration
	Store     TranscriptStore
	Metrics   *metrics.Metrics
}

// generationService implements GenerationService.
type generationService struct {
	generator Generator
	opts      Options
}

// NewGenerationService creates a new GenerationService.
func NewGenerationService(generator Generator, opts Options) GenerationService {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	return &generationService{
		generator: generator,
		opts:      opts,
	}
}

// Generate processes a generation request.
func (s *generationService) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "Received data", "data", receivedData(req))

	if req.Question == nil {
		logger.WarnContext(ctx, "question missing from request")
		return GenerateResponse{}, &ValidationError{
			Field:   "question",
			Message: "is required",
		}
	}
	question := *req.Question

	genCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	params := llm.GenerateParams{MaxLength: s.opts.MaxLength}
	result, err := s.generator.Generate(genCtx, question, params)
	if err == nil && len(result) == 0 {
		err = llm.ErrEmptyResult
	}
	if err != nil {
		return GenerateResponse{}, s.generationError(ctx, genCtx, err)
	}
	s.opts.Metrics.ObserveGeneration(s.opts.Provider, metrics.OutcomeSuccess)

	encoded, err := EncodeResult(result)
	if err != nil {
		logger.WarnContext(ctx, "failed to encode response for logging", "error", err)
	}
	logger.InfoContext(ctx, "Generated response", "response", encoded)

	if s.opts.Store != nil && err == nil {
		s.record(ctx, question, encoded)
	}

	return GenerateResponse{Result: result}, nil
}

// generationError classifies a generator failure.
func (s *generationService) generationError(ctx, genCtx context.Context, err error) error {
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case ctx.Err() != nil:
		// The client went away; nothing useful can be sent back.
		logger.WarnContext(ctx, "request canceled during generation", "error", err)
		s.opts.Metrics.ObserveGeneration(s.opts.Provider, metrics.OutcomeError)
		return WrapError(ctx.Err(), "request canceled")
	case errors.Is(genCtx.Err(), context.DeadlineExceeded):
		logger.ErrorContext(ctx, "generation timed out", "timeout", s.opts.Timeout, "error", err)
		s.opts.Metrics.ObserveGeneration(s.opts.Provider, metrics.OutcomeTimeout)
		return fmt.Errorf("%w after %s: %w", ErrTimeout, s.opts.Timeout, err)
	default:
		logger.ErrorContext(ctx, "failed to generate response", "provider", s.opts.Provider, "error", err)
		s.opts.Metrics.ObserveGeneration(s.opts.Provider, metrics.OutcomeError)
		return fmt.Errorf("%w: %w", ErrExternalService, err)
	}
}

// EncodeResult returns the JSON text of result exactly as it is sent to clients.
func EncodeResult(result llm.Result) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// receivedData is the logged form of the incoming document.
func receivedData(req GenerateRequest) string {
	switch {
	case len(req.Document) > 0:
		return string(req.Document)
	case req.Question != nil:
		raw, _ := json.Marshal(map[string]string{"question": *req.Question})
		return string(raw)
	default:
		return "{}"
	}
}

// record stores the exchange. Failures are logged only.
func (s *generationService) record(ctx context.Context, question, response string) {
	logger := contextutil.LoggerFromContext(ctx)

	ex := storage.Exchange{
		ID:        uuid.New().String(),
		Question:  question,
		MaxLength: s.opts.MaxLength,
		Provider:  s.opts.Provider,
		Response:  response,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.opts.Store.InsertExchange(context.WithoutCancel(ctx), ex); err != nil {
		logger.WarnContext(ctx, "failed to record exchange", "exchange_id", ex.ID, "error", err)
		return
	}
	logger.DebugContext(ctx, "exchange recorded", "exchange_id", ex.ID)
}
