// Package config handles configuration loading and validation for the
// advisor engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the advisor engine.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Cache        CacheConfig        `yaml:"cache"`
	LLM          LLMConfig          `yaml:"llm"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Conversation ConversationConfig `yaml:"conversation"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds catalog database settings. Driver selects between
// postgres for deployments and sqlite3 for local development.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds cache settings. Backend selects between redis and an
// in-process memory cache.
type CacheConfig struct {
	Backend  string        `yaml:"backend"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// LLMConfig holds model provider settings. Provider selects between
// openrouter and gemini.
type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	PlannerModel   string        `yaml:"planner_model"`
	SynthesisModel string        `yaml:"synthesis_model"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
}

// RetrievalConfig holds query planning and execution settings.
type RetrievalConfig struct {
	MaxPlans     int `yaml:"max_plans"`
	PerPlanLimit int `yaml:"per_plan_limit"`
}

// ConversationConfig holds history windowing settings.
type ConversationConfig struct {
	VerbatimWindow   int `yaml:"verbatim_window"`
	SummaryUserMax   int `yaml:"summary_user_max"`
	SummaryAssistMax int `yaml:"summary_assistant_max"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults for local
// development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			DSN:             "advisor.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Addr:    "localhost:6379",
			DB:      0,
			TTL:     10 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:       "openrouter",
			BaseURL:        "https://openrouter.ai/api/v1",
			PlannerModel:   "google/gemini-2.0-flash-001",
			SynthesisModel: "google/gemini-2.0-flash-001",
			RequestTimeout: 60 * time.Second,
			MaxRetries:     3,
			RetryBackoff:   time.Second,
		},
		Retrieval: RetrievalConfig{
			MaxPlans:     3,
			PerPlanLimit: 10,
		},
		Conversation: ConversationConfig{
			VerbatimWindow:   10,
			SummaryUserMax:   5,
			SummaryAssistMax: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from the given YAML file, applies environment
// variable overrides and validates the result. A missing file is not an
// error; defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ADVISOR_SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("ADVISOR_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("ADVISOR_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("ADVISOR_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("ADVISOR_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("ADVISOR_REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
	}
	if v := os.Getenv("ADVISOR_REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
	if v := os.Getenv("ADVISOR_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("ADVISOR_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("ADVISOR_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("ADVISOR_PLANNER_MODEL"); v != "" {
		c.LLM.PlannerModel = v
	}
	if v := os.Getenv("ADVISOR_SYNTHESIS_MODEL"); v != "" {
		c.LLM.SynthesisModel = v
	}
	if v := os.Getenv("ADVISOR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ADVISOR_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	switch c.Cache.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Addr == "" {
		return fmt.Errorf("redis addr is required when cache backend is redis")
	}

	switch c.LLM.Provider {
	case "openrouter", "gemini":
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.PlannerModel == "" || c.LLM.SynthesisModel == "" {
		return fmt.Errorf("planner and synthesis models are required")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm max_retries must be non-negative")
	}

	if c.Retrieval.MaxPlans < 1 {
		return fmt.Errorf("retrieval max_plans must be at least 1")
	}
	if c.Retrieval.PerPlanLimit < 1 {
		return fmt.Errorf("retrieval per_plan_limit must be at least 1")
	}

	if c.Conversation.VerbatimWindow < 1 {
		return fmt.Errorf("conversation verbatim_window must be at least 1")
	}
	return nil
}

// Addr returns the server listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
