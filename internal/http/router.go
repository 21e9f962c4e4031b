package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"llm-api/internal/handlers"
	"llm-api/internal/metrics"
	"llm-api/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	GenerationService service.GenerationService
	Provider          string

	// Store is pinged by the health check. Nil when transcripts are disabled.
	Store handlers.Pinger
	// Exchanges serves /api/exchanges. The route is not mounted when nil.
	Exchanges handlers.ExchangeLister

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	CORSAllowedOrigins []string
	// RateLimiter applies to the generation and history routes. Nil disables it.
	RateLimiter *rate.Limiter
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(Metrics(deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(CORS(deps.CORSAllowedOrigins))

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(RateLimit(deps.RateLimiter))
		}

		r.Get("/", handlers.UsageHandler)
		r.Method(http.MethodPost, "/", handlers.NewGenerateHandler(deps.GenerationService))

		if deps.Exchanges != nil {
			r.Method(http.MethodGet, "/api/exchanges", handlers.NewExchangesHandler(deps.Exchanges))
		}
	})

	r.Method(http.MethodGet, "/api/health", handlers.NewHealthHandler(deps.Store, deps.Provider))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
