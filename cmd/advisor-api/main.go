// Package main provides the advisor API server entrypoint.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/phonepilot/advisor-engine/cmd/advisor-api/handlers"
	"github.com/phonepilot/advisor-engine/internal/assistant"
	"github.com/phonepilot/advisor-engine/internal/cache"
	"github.com/phonepilot/advisor-engine/internal/catalog"
	"github.com/phonepilot/advisor-engine/internal/config"
	"github.com/phonepilot/advisor-engine/internal/convo"
	"github.com/phonepilot/advisor-engine/internal/executor"
	"github.com/phonepilot/advisor-engine/internal/llm"
	"github.com/phonepilot/advisor-engine/internal/observability"
	"github.com/phonepilot/advisor-engine/internal/planner"
	"github.com/phonepilot/advisor-engine/internal/synthesis"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "advisor-engine",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Backend).
		Str("llm", cfg.LLM.Provider).
		Msg("Starting advisor API")

	ctx := context.Background()

	// Catalog store
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	store := catalog.NewStore(db, catalog.Dialect(cfg.Database.Driver), logger)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure catalog schema")
	}

	// Cache
	var cacheClient cache.Client
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		cacheClient = rc
	default:
		cacheClient = cache.NewMemoryClient()
	}
	defer cacheClient.Close()

	// Model client
	llmClient, err := newLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create llm client")
	}

	// Pipeline
	svc := assistant.New(
		planner.New(llmClient, cfg.LLM.PlannerModel, cfg.Retrieval.MaxPlans, logger),
		executor.New(store, cfg.Retrieval.PerPlanLimit, logger),
		synthesis.New(llmClient, cfg.LLM.SynthesisModel, logger),
		cacheClient,
		assistant.Options{
			TrimOptions: convo.TrimOptions{
				VerbatimWindow:   cfg.Conversation.VerbatimWindow,
				SummaryUserMax:   cfg.Conversation.SummaryUserMax,
				SummaryAssistMax: cfg.Conversation.SummaryAssistMax,
			},
			CacheTTL: cfg.Cache.TTL,
		},
		logger,
	)

	chatHandler := handlers.NewChatHandler(logger, svc)
	readyCheck := func(ctx context.Context) error { return db.PingContext(ctx) }
	router := NewRouter(logger, chatHandler, readyCheck, cfg.Server.WriteTimeout)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// newLLMClient builds the configured model client.
func newLLMClient(ctx context.Context, cfg *config.Config, logger *observability.Logger) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.RequestTimeout)
	default:
		return llm.NewOpenRouterClient(llm.OpenRouterOptions{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			RequestTimeout: cfg.LLM.RequestTimeout,
			MaxRetries:     cfg.LLM.MaxRetries,
			RetryBackoff:   cfg.LLM.RetryBackoff,
		}, logger), nil
	}
}
