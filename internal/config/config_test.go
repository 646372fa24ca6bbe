package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONCIERGE_INSTANCE_ID", "CONCIERGE_HOST", "PORT", "CONCIERGE_ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT", "CONCIERGE_KB_PATH", "CONCIERGE_KB_WATCH", "CONCIERGE_KB_BATCH_SIZE",
		"CONCIERGE_TOP_K", "CONCIERGE_MIN_SCORE", "CONCIERGE_FALLBACK_TEXT",
		"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_BASE_URL", "EMBEDDING_API_KEY",
		"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "LLM_API_KEY",
		"SPEECH_PROVIDER", "SPEECH_MODEL", "SPEECH_VOICE", "SPEECH_BASE_URL", "SPEECH_API_KEY",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "ELEVENLABS_API_KEY",
		"CONVERSATION_BACKEND", "CONVERSATION_TTL", "SEED_BACKEND", "SEED_SQLITE_PATH",
		"FEEDBACK_BACKEND", "FEEDBACK_SQLITE_PATH", "FEEDBACK_TTL",
		"DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "REDIS_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendNone, cfg.Conversation.Backend)
	assert.Equal(t, BackendNone, cfg.Seeds.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Conversation.TTL)
	assert.Equal(t, BackendNone, cfg.Feedback.Backend)
	assert.Equal(t, 30*24*time.Hour, cfg.Feedback.TTL)
	assert.Equal(t, domain.DefaultSearchOptions(), cfg.SearchOptions())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "concierge.yaml")
	content := `
server:
  port: 9090
knowledge_base:
  path: /srv/kb.yml
  watch: false
ai:
  embedding:
    provider: ollama
    model: nomic-embed-text
  llm:
    provider: anthropic
    api_key: file-key
conversation:
  backend: redis
  ttl: 2h
redis:
  url: redis://localhost:6379/0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/kb.yml", cfg.KnowledgeBase.Path)
	assert.False(t, cfg.KnowledgeBase.Watch)
	assert.Equal(t, domain.AIProviderOllama, cfg.AI.Embedding.Provider)
	assert.True(t, cfg.AI.Embedding.IsConfigured())
	assert.Equal(t, "file-key", cfg.AI.LLM.APIKey)
	assert.Equal(t, 2*time.Hour, cfg.Conversation.TTL)
	// untouched sections keep their defaults
	assert.Equal(t, 64, cfg.KnowledgeBase.BatchSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("CONCIERGE_MIN_SCORE", "0.45")
	t.Setenv("CONCIERGE_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SEED_BACKEND", "sqlite")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, domain.AIProviderOpenAI, cfg.AI.LLM.Provider)
	assert.Equal(t, "sk-env", cfg.AI.LLM.APIKey)
	assert.InDelta(t, 0.45, cfg.Answer.MinScore, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, BackendSQLite, cfg.Seeds.Backend)
}

func TestLoad_Feedback(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEEDBACK_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FEEDBACK_TTL", "72h")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Feedback.Backend)
	assert.Equal(t, 72*time.Hour, cfg.Feedback.TTL)
	assert.Equal(t, "./data/feedback.db", cfg.Feedback.SQLitePath)
}

func TestLoad_ExplicitKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "explicit")
	t.Setenv("OPENAI_API_KEY", "fallback")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.AI.Embedding.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"redis without url", map[string]string{"CONVERSATION_BACKEND": "redis"}},
		{"postgres without url", map[string]string{"SEED_BACKEND": "postgres"}},
		{"unknown conversation backend", map[string]string{"CONVERSATION_BACKEND": "memcached"}},
		{"unknown seed backend", map[string]string{"SEED_BACKEND": "mongo"}},
		{"feedback redis without url", map[string]string{"FEEDBACK_BACKEND": "redis"}},
		{"unknown feedback backend", map[string]string{"FEEDBACK_BACKEND": "postgres"}},
		{"bad port", map[string]string{"PORT": "70000"}},
		{"unknown provider", map[string]string{"LLM_PROVIDER": "cohere"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidBackendIsInputError(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEED_BACKEND", "mongo")

	_, err := Load("")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
