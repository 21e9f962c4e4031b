package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"llm-api/internal/config"
	"llm-api/internal/http"
	"llm-api/internal/llm"
	"llm-api/internal/metrics"
	"llm-api/internal/service"
	"llm-api/internal/storage"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create the generation backend once; it is shared by every request
	backend, err := llm.NewBackend(ctx, llm.Options{
		Provider: cfg.LLMProvider,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModelName,
		APIType:  cfg.LLMAPIType,
	})
	if err != nil {
		log.Fatalf("Failed to create LLM backend: %v", err)
	}
	defer func() {
		_ = backend.Close()
	}()
	slog.Info("LLM backend initialized", "provider", backend.Provider(), "model", cfg.LLMModelName)

	if cfg.LLMPreload {
		loader := llm.NewModelLoader(cfg.LLMBaseURL)
		if err := loader.LoadModel(ctx, cfg.LLMModelName, nil); err != nil {
			log.Fatalf("Failed to preload model %s: %v", cfg.LLMModelName, err)
		}
		slog.Info("Model preloaded", "model", cfg.LLMModelName)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svcOpts := service.Options{
		Provider:  backend.Provider(),
		MaxLength: cfg.GenerationMaxLength,
		Timeout:   cfg.GenerationTimeout,
		Metrics:   m,
	}
	deps := &http.Deps{
		Provider:           backend.Provider(),
		Metrics:            m,
		Gatherer:           reg,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	// Initialize the transcript store when configured
	if cfg.TranscriptEnabled() {
		db, err := storage.New(cfg.TranscriptDBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()

		if err := storage.Migrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		slog.Info("Transcript store initialized", "path", cfg.TranscriptDBPath)

		exchangeRepo := storage.NewExchangeRepo(db)
		svcOpts.Store = exchangeRepo
		deps.Store = exchangeRepo
		deps.Exchanges = exchangeRepo
	}

	if cfg.RateLimitEnabled() {
		deps.RateLimiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
		slog.Info("Rate limiting enabled", "per_sec", cfg.RateLimitPerSec, "burst", cfg.RateLimitBurst)
	}

	deps.GenerationService = service.NewGenerationService(backend, svcOpts)
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName, "max_length", cfg.GenerationMaxLength)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			slog.Error("API server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server", "timeout", cfg.ShutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	slog.Info("API server stopped")
}
