// ABOUTME: Centralized configuration for the driftcheck CLI and MCP server
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/harper/driftcheck/internal/baseline"
	"github.com/harper/driftcheck/internal/embedding"
	"github.com/harper/driftcheck/internal/llm"
	"github.com/harper/driftcheck/internal/metrics"
	"github.com/harper/driftcheck/internal/telemetry"
	openai "github.com/sashabaranov/go-openai"
)

// Baseline store backends
const (
	StoreSQLite = "sqlite"
	StoreCharm  = "charm"
	StoreMemory = "memory"
)

// Config holds all configuration for driftcheck
type Config struct {
	// Embedding settings
	Embedder      string
	HashDimension int
	EmbedCacheTTL time.Duration

	// OpenAI settings
	OpenAIKey      string
	OpenAIBaseURL  string
	ChatModel      string
	EmbeddingModel string
	MaxTokens      int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Evaluation settings
	SimilarityThreshold float64
	ZThreshold          float64
	Concurrency         int

	// Baseline storage
	BaselineBackend string
	BaselineDB      string

	// Charm settings
	CharmHost   string
	CharmDBName string
	AutoSync    bool

	LogLevel slog.Level

	// TraceExporter is none, stdout or otlp. The OTLP endpoint comes from
	// the standard OTEL_EXPORTER_OTLP_ENDPOINT variable.
	TraceExporter string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Embedder:            getEnv("DRIFTCHECK_EMBEDDER", embedding.BackendHash),
		HashDimension:       getEnvInt("DRIFTCHECK_HASH_DIMENSION", embedding.DefaultHashDimension),
		EmbedCacheTTL:       getEnvDuration("DRIFTCHECK_EMBED_CACHE_TTL", 10*time.Minute),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		ChatModel:           getEnv("DRIFTCHECK_CHAT_MODEL", llm.DefaultChatModel),
		EmbeddingModel:      getEnv("DRIFTCHECK_EMBEDDING_MODEL", string(llm.DefaultEmbeddingModel)),
		MaxTokens:           getEnvInt("OPENAI_MAX_TOKENS", 0),
		Timeout:             getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:          getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:          getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		SimilarityThreshold: getEnvFloat("DRIFTCHECK_SIMILARITY_THRESHOLD", metrics.DefaultSimilarityThreshold),
		ZThreshold:          getEnvFloat("DRIFTCHECK_Z_THRESHOLD", metrics.DefaultZThreshold),
		Concurrency:         getEnvInt("DRIFTCHECK_CONCURRENCY", 4),
		BaselineBackend:     getEnv("DRIFTCHECK_BASELINE_BACKEND", StoreSQLite),
		BaselineDB:          getEnv("DRIFTCHECK_BASELINE_DB", baseline.DefaultDBPath()),
		CharmHost:           getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:         getEnv("CHARM_DB", "driftcheck"),
		AutoSync:            getEnvBool("CHARM_AUTO_SYNC", true),
		LogLevel:            getEnvLevel("DRIFTCHECK_LOG_LEVEL", slog.LevelInfo),
		TraceExporter:       getEnv("OTEL_TRACES_EXPORTER", telemetry.ExporterNone),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Embedder {
	case embedding.BackendHash:
		if c.HashDimension <= 0 {
			return fmt.Errorf("DRIFTCHECK_HASH_DIMENSION must be positive, got %d", c.HashDimension)
		}
	case embedding.BackendOpenAI:
	default:
		return fmt.Errorf("DRIFTCHECK_EMBEDDER must be %s or %s, got %q", embedding.BackendHash, embedding.BackendOpenAI, c.Embedder)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("DRIFTCHECK_SIMILARITY_THRESHOLD must be 0-1, got %f", c.SimilarityThreshold)
	}
	if c.ZThreshold <= 0 {
		return fmt.Errorf("DRIFTCHECK_Z_THRESHOLD must be positive, got %f", c.ZThreshold)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("OPENAI_MAX_TOKENS must not be negative, got %d", c.MaxTokens)
	}
	if c.Concurrency < 1 || c.Concurrency > 64 {
		return fmt.Errorf("DRIFTCHECK_CONCURRENCY must be 1-64, got %d", c.Concurrency)
	}
	if c.EmbedCacheTTL < 0 {
		return fmt.Errorf("DRIFTCHECK_EMBED_CACHE_TTL must not be negative, got %v", c.EmbedCacheTTL)
	}
	switch c.BaselineBackend {
	case StoreSQLite, StoreCharm, StoreMemory:
	default:
		return fmt.Errorf("DRIFTCHECK_BASELINE_BACKEND must be sqlite, charm or memory, got %q", c.BaselineBackend)
	}
	if !telemetry.ValidExporter(c.TraceExporter) {
		return fmt.Errorf("OTEL_TRACES_EXPORTER must be none, stdout or otlp, got %q", c.TraceExporter)
	}
	return nil
}

// ClientConfig returns the OpenAI client settings
func (c *Config) ClientConfig() *llm.ClientConfig {
	return &llm.ClientConfig{
		APIKey:         c.OpenAIKey,
		BaseURL:        c.OpenAIBaseURL,
		ChatModel:      c.ChatModel,
		EmbeddingModel: openai.EmbeddingModel(c.EmbeddingModel),
		MaxTokens:      c.MaxTokens,
		Timeout:        c.Timeout,
		MaxRetries:     c.MaxRetries,
		RetryDelay:     c.RetryDelay,
	}
}

// EmbeddingConfig returns the settings for embedding.Open
func (c *Config) EmbeddingConfig() embedding.Config {
	cfg := embedding.Config{
		Backend:       c.Embedder,
		HashDimension: c.HashDimension,
		CacheTTL:      c.EmbedCacheTTL,
	}
	if c.Embedder == embedding.BackendOpenAI {
		cfg.OpenAI = c.ClientConfig()
	}
	return cfg
}

// CharmConfig returns the settings for baseline.OpenCharm
func (c *Config) CharmConfig() *baseline.CharmConfig {
	return &baseline.CharmConfig{
		Host:     c.CharmHost,
		DBName:   c.CharmDBName,
		AutoSync: c.AutoSync,
	}
}

// TelemetryConfig returns the tracing settings for telemetry.Init
func (c *Config) TelemetryConfig(version string) telemetry.Config {
	return telemetry.Config{
		Exporter:       c.TraceExporter,
		ServiceName:    "driftcheck",
		ServiceVersion: version,
	}
}

// OpenBaselineStore opens the configured baseline backend
func (c *Config) OpenBaselineStore() (baseline.Store, error) {
	switch c.BaselineBackend {
	case StoreMemory:
		return baseline.NewMemoryStore(), nil
	case StoreCharm:
		store, err := baseline.OpenCharm(c.CharmConfig())
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoreSQLite, "":
		store, err := baseline.OpenSQLite(c.BaselineDB)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown baseline backend %q", c.BaselineBackend)
	}
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvLevel(key string, defaultVal slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err == nil {
			return level
		}
	}
	return defaultVal
}
