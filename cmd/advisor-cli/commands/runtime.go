package commands

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

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

// runtime holds the wired pipeline for a CLI invocation.
type runtime struct {
	cfg    *config.Config
	log    *observability.Logger
	db     *sql.DB
	store  *catalog.Store
	cache  cache.Client
	svc    *assistant.Service
	closer []func()
}

// Close releases runtime resources in reverse acquisition order.
func (r *runtime) Close() {
	for i := len(r.closer) - 1; i >= 0; i-- {
		r.closer[i]()
	}
}

// newStoreRuntime wires config, logging and the catalog store. Commands that
// never call a model (seed) stop here.
func newStoreRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		ServiceName: "advisor-cli",
	})

	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	r := &runtime{cfg: cfg, log: log, db: db}
	r.closer = append(r.closer, func() { db.Close() })

	r.store = catalog.NewStore(db, catalog.Dialect(cfg.Database.Driver), log)
	if err := r.store.EnsureSchema(ctx); err != nil {
		r.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return r, nil
}

// newServiceRuntime wires the full pipeline including cache and model client.
func newServiceRuntime(ctx context.Context) (*runtime, error) {
	r, err := newStoreRuntime(ctx)
	if err != nil {
		return nil, err
	}

	switch r.cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     r.cfg.Cache.Addr,
			Password: r.cfg.Cache.Password,
			DB:       r.cfg.Cache.DB,
		})
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		r.cache = rc
	default:
		r.cache = cache.NewMemoryClient()
	}
	r.closer = append(r.closer, func() { r.cache.Close() })

	var llmClient llm.Client
	switch r.cfg.LLM.Provider {
	case "gemini":
		gc, err := llm.NewGeminiClient(ctx, r.cfg.LLM.APIKey, r.cfg.LLM.RequestTimeout)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		r.closer = append(r.closer, func() { gc.Close() })
		llmClient = gc
	default:
		llmClient = llm.NewOpenRouterClient(llm.OpenRouterOptions{
			APIKey:         r.cfg.LLM.APIKey,
			BaseURL:        r.cfg.LLM.BaseURL,
			RequestTimeout: r.cfg.LLM.RequestTimeout,
			MaxRetries:     r.cfg.LLM.MaxRetries,
			RetryBackoff:   r.cfg.LLM.RetryBackoff,
		}, r.log)
	}

	r.svc = assistant.New(
		planner.New(llmClient, r.cfg.LLM.PlannerModel, r.cfg.Retrieval.MaxPlans, r.log),
		executor.New(r.store, r.cfg.Retrieval.PerPlanLimit, r.log),
		synthesis.New(llmClient, r.cfg.LLM.SynthesisModel, r.log),
		r.cache,
		assistant.Options{
			TrimOptions: convo.TrimOptions{
				VerbatimWindow:   r.cfg.Conversation.VerbatimWindow,
				SummaryUserMax:   r.cfg.Conversation.SummaryUserMax,
				SummaryAssistMax: r.cfg.Conversation.SummaryAssistMax,
			},
			CacheTTL: r.cfg.Cache.TTL,
		},
		r.log,
	)
	return r, nil
}
