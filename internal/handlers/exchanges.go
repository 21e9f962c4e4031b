package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"llm-api/internal/contextutil"
	"llm-api/internal/storage"
)

const (
	defaultExchangeLimit = 20
	maxExchangeLimit     = 100
)

// ExchangeLister lists recorded exchanges, newest first.
type ExchangeLister interface {
	ListRecent(ctx context.Context, limit int) ([]storage.Exchange, error)
}

// ExchangesHandler serves the recorded exchange history.
type ExchangesHandler struct {
	lister ExchangeLister
}

// NewExchangesHandler creates a new ExchangesHandler.
func NewExchangesHandler(lister ExchangeLister) *ExchangesHandler {
	return &ExchangesHandler{lister: lister}
}

// ExchangeResponse is one exchange as returned by the API.
type ExchangeResponse struct {
	ID        string          `json:"id"`
	Question  string          `json:"question"`
	MaxLength int             `json:"max_length"`
	Provider  string          `json:"provider"`
	Response  json.RawMessage `json:"response"`
	CreatedAt string          `json:"created_at"`
}

// ExchangesResponse wraps the exchange list.
type ExchangesResponse struct {
	Exchanges []ExchangeResponse `json:"exchanges"`
}

// ServeHTTP handles GET /api/exchanges?limit=N.
func (h *ExchangesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		logger.WarnContext(ctx, "invalid limit", "limit", r.URL.Query().Get("limit"))
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	exchanges, err := h.lister.ListRecent(ctx, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list exchanges", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list exchanges")
		return
	}

	resp := ExchangesResponse{Exchanges: make([]ExchangeResponse, 0, len(exchanges))}
	for _, ex := range exchanges {
		raw := json.RawMessage(ex.Response)
		if !json.Valid(raw) {
			raw, _ = json.Marshal(ex.Response)
		}
		resp.Exchanges = append(resp.Exchanges, ExchangeResponse{
			ID:        ex.ID,
			Question:  ex.Question,
			MaxLength: ex.MaxLength,
			Provider:  ex.Provider,
			Response:  raw,
			CreatedAt: ex.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode exchanges", "error", err)
	}
}

// parseLimit returns the default for an empty value and clamps to the maximum.
func parseLimit(raw string) (int, bool) {
	if raw == "" {
		return defaultExchangeLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	if n > maxExchangeLimit {
		n = maxExchangeLimit
	}
	return n, true
}
