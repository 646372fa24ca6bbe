// Package config loads service configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// Backend names
const (
	BackendNone     = "none"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config is the complete service configuration
type Config struct {
	InstanceID    string              `yaml:"instance_id"`
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base"`
	AI            domain.AISettings   `yaml:"ai"`
	ProbeAI       bool                `yaml:"probe_ai"`
	Answer        AnswerConfig        `yaml:"answer"`
	Conversation  ConversationConfig  `yaml:"conversation"`
	Seeds         SeedConfig          `yaml:"seeds"`
	Feedback      FeedbackConfig      `yaml:"feedback"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures the default slog handler
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// KnowledgeBaseConfig locates the knowledge base file
type KnowledgeBaseConfig struct {
	Path          string   `yaml:"path"`
	Watch         bool     `yaml:"watch"`
	BatchSize     int      `yaml:"batch_size"`
	ExtraEntities []string `yaml:"extra_entities"`
}

// AnswerConfig tunes the answer orchestrator
type AnswerConfig struct {
	TopK         int     `yaml:"top_k"`
	MinScore     float64 `yaml:"min_score"`
	FallbackText string  `yaml:"fallback_text"`
	SystemPrompt string  `yaml:"system_prompt"`
}

// ConversationConfig selects server-side history storage
type ConversationConfig struct {
	Backend string        `yaml:"backend"` // none or redis
	TTL     time.Duration `yaml:"ttl"`
}

// SeedConfig selects the embedding cache
type SeedConfig struct {
	Backend    string `yaml:"backend"` // none, postgres or sqlite
	SQLitePath string `yaml:"sqlite_path"`
}

// FeedbackConfig selects where delivered answers are kept for rating
type FeedbackConfig struct {
	Backend    string        `yaml:"backend"` // none, redis or sqlite
	SQLitePath string        `yaml:"sqlite_path"`
	TTL        time.Duration `yaml:"ttl"` // redis only
}

// DatabaseConfig configures PostgreSQL
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RedisConfig configures Redis
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		KnowledgeBase: KnowledgeBaseConfig{
			Path:      "./configs/restaurant.yaml",
			Watch:     true,
			BatchSize: 64,
		},
		Answer: AnswerConfig{
			TopK:     3,
			MinScore: 0.3,
		},
		Conversation: ConversationConfig{
			Backend: BackendNone,
			TTL:     24 * time.Hour,
		},
		Seeds: SeedConfig{
			Backend:    BackendNone,
			SQLitePath: "./data/seed.db",
		},
		Feedback: FeedbackConfig{
			Backend:    BackendNone,
			SQLitePath: "./data/feedback.db",
			TTL:        30 * 24 * time.Hour,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: time.Minute,
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from CONCIERGE_* and provider key variables
func (c *Config) applyEnv() {
	c.InstanceID = getEnv("CONCIERGE_INSTANCE_ID", c.InstanceID)

	c.Server.Host = getEnv("CONCIERGE_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	if origins := getEnv("CONCIERGE_ALLOWED_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.KnowledgeBase.Path = getEnv("CONCIERGE_KB_PATH", c.KnowledgeBase.Path)
	c.KnowledgeBase.Watch = getEnvBool("CONCIERGE_KB_WATCH", c.KnowledgeBase.Watch)
	c.ProbeAI = getEnvBool("CONCIERGE_PROBE_AI", c.ProbeAI)
	c.KnowledgeBase.BatchSize = getEnvInt("CONCIERGE_KB_BATCH_SIZE", c.KnowledgeBase.BatchSize)

	c.Answer.TopK = getEnvInt("CONCIERGE_TOP_K", c.Answer.TopK)
	c.Answer.MinScore = getEnvFloat("CONCIERGE_MIN_SCORE", c.Answer.MinScore)
	c.Answer.FallbackText = getEnv("CONCIERGE_FALLBACK_TEXT", c.Answer.FallbackText)

	c.AI.Embedding.Provider = domain.AIProvider(getEnv("EMBEDDING_PROVIDER", string(c.AI.Embedding.Provider)))
	c.AI.Embedding.Model = getEnv("EMBEDDING_MODEL", c.AI.Embedding.Model)
	c.AI.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", c.AI.Embedding.BaseURL)
	c.AI.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", c.AI.Embedding.APIKey)

	c.AI.LLM.Provider = domain.AIProvider(getEnv("LLM_PROVIDER", string(c.AI.LLM.Provider)))
	c.AI.LLM.Model = getEnv("LLM_MODEL", c.AI.LLM.Model)
	c.AI.LLM.BaseURL = getEnv("LLM_BASE_URL", c.AI.LLM.BaseURL)
	c.AI.LLM.APIKey = getEnv("LLM_API_KEY", c.AI.LLM.APIKey)

	c.AI.Speech.Provider = domain.AIProvider(getEnv("SPEECH_PROVIDER", string(c.AI.Speech.Provider)))
	c.AI.Speech.Model = getEnv("SPEECH_MODEL", c.AI.Speech.Model)
	c.AI.Speech.Voice = getEnv("SPEECH_VOICE", c.AI.Speech.Voice)
	c.AI.Speech.BaseURL = getEnv("SPEECH_BASE_URL", c.AI.Speech.BaseURL)
	c.AI.Speech.APIKey = getEnv("SPEECH_API_KEY", c.AI.Speech.APIKey)

	// Provider-specific keys fill in when no explicit key is set
	c.AI.Embedding.APIKey = providerKey(c.AI.Embedding.Provider, c.AI.Embedding.APIKey)
	c.AI.LLM.APIKey = providerKey(c.AI.LLM.Provider, c.AI.LLM.APIKey)
	c.AI.Speech.APIKey = providerKey(c.AI.Speech.Provider, c.AI.Speech.APIKey)

	c.Conversation.Backend = getEnv("CONVERSATION_BACKEND", c.Conversation.Backend)
	c.Conversation.TTL = getEnvDuration("CONVERSATION_TTL", c.Conversation.TTL)

	c.Seeds.Backend = getEnv("SEED_BACKEND", c.Seeds.Backend)
	c.Seeds.SQLitePath = getEnv("SEED_SQLITE_PATH", c.Seeds.SQLitePath)

	c.Feedback.Backend = getEnv("FEEDBACK_BACKEND", c.Feedback.Backend)
	c.Feedback.SQLitePath = getEnv("FEEDBACK_SQLITE_PATH", c.Feedback.SQLitePath)
	c.Feedback.TTL = getEnvDuration("FEEDBACK_TTL", c.Feedback.TTL)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)

	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
}

// Validate checks backend names and the settings they depend on
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("ai settings: %w", err)
	}

	switch c.Conversation.Backend {
	case BackendNone, "":
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("%w: conversation backend redis requires REDIS_URL", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown conversation backend %q", domain.ErrInvalidInput, c.Conversation.Backend)
	}

	switch c.Seeds.Backend {
	case BackendNone, "", BackendSQLite:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: seed backend postgres requires DATABASE_URL", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown seed backend %q", domain.ErrInvalidInput, c.Seeds.Backend)
	}

	switch c.Feedback.Backend {
	case BackendNone, "", BackendSQLite:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("%w: feedback backend redis requires REDIS_URL", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown feedback backend %q", domain.ErrInvalidInput, c.Feedback.Backend)
	}

	if c.KnowledgeBase.Path == "" {
		return fmt.Errorf("%w: knowledge base path is required", domain.ErrInvalidInput)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", domain.ErrInvalidInput, c.Server.Port)
	}
	return nil
}

// SearchOptions returns the configured KB thresholds
func (c *Config) SearchOptions() domain.SearchOptions {
	return domain.SearchOptions{TopK: c.Answer.TopK, MinScore: c.Answer.MinScore}.Normalize()
}

// providerKey falls back to the conventional variable for the provider
func providerKey(provider domain.AIProvider, current string) string {
	if current != "" {
		return current
	}
	switch provider {
	case domain.AIProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case domain.AIProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case domain.AIProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	case domain.AIProviderElevenLabs:
		return os.Getenv("ELEVENLABS_API_KEY")
	default:
		return ""
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
