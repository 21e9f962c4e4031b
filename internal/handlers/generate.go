package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"llm-api/internal/contextutil"
	"llm-api/internal/service"
)

// UsageText is returned by GET /.
const UsageText = "POST a message with a JSON document that has a 'question' key."

// UsageHandler serves the usage string.
func UsageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(UsageText))
}

// GenerateHandler handles HTTP requests for text generation.
type GenerateHandler struct {
	generationService service.GenerationService
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(generationService service.GenerationService) *GenerateHandler {
	return &GenerateHandler{
		generationService: generationService,
	}
}

// ServeHTTP handles HTTP requests for text generation.
//
// The body must be exactly one JSON object. The "question" member is required
// and must be a string; every other member is ignored. The generator result is
// written back unchanged.
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	raw, body, err := decodeBody(r.Body)
	if err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcReq, err := decodeQuestion(body)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process request")
		return
	}
	svcReq.Document = raw

	svcResp, err := h.generationService.Generate(ctx, svcReq)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process request")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(svcResp.Result); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
}

var errNotObject = errors.New("body is not a JSON object")

// decodeBody reads r and decodes it as a single JSON object. Anything after
// the object other than whitespace is an error. It returns the raw document
// alongside its members.
func decodeBody(r io.Reader) (json.RawMessage, map[string]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var body map[string]json.RawMessage
	if err := dec.Decode(&body); err != nil {
		return nil, nil, err
	}
	if body == nil {
		return nil, nil, errNotObject
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, nil, errors.New("unexpected data after JSON object")
	}
	return json.RawMessage(bytes.TrimSpace(data)), body, nil
}

// decodeQuestion converts the decoded body into a service request.
// A missing or null question is left nil for the service to reject.
func decodeQuestion(body map[string]json.RawMessage) (service.GenerateRequest, error) {
	raw, ok := body["question"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return service.GenerateRequest{}, nil
	}

	var question string
	if err := json.Unmarshal(raw, &question); err != nil {
		return service.GenerateRequest{}, &service.ValidationError{
			Field:   "question",
			Message: "must be a string",
		}
	}
	return service.GenerateRequest{Question: &question}, nil
}
