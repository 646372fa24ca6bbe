package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-concierge/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-concierge/internal/adapters/driven/kbfile"
	"github.com/custodia-labs/sercha-concierge/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/sercha-concierge/internal/adapters/driven/redis"
	"github.com/custodia-labs/sercha-concierge/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/sercha-concierge/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-concierge/internal/config"
	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-concierge/internal/core/services"
	"github.com/custodia-labs/sercha-concierge/internal/normalisers"
	"github.com/custodia-labs/sercha-concierge/internal/postprocessors"
	"github.com/custodia-labs/sercha-concierge/internal/runtime"
	"github.com/custodia-labs/sercha-concierge/internal/worker"
)

// app holds the wired services shared by every command
type app struct {
	instanceID string
	logger     *slog.Logger

	services *runtime.Services
	index    *services.KnowledgeIndex
	answers  driving.AnswerService
	feedback driving.FeedbackService
	worker   *worker.IndexWorker

	seedStore         driven.SeedStore
	conversationStore driven.ConversationStore
	feedbackStore     driven.FeedbackStore
	lock              driven.DistributedLock

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		instanceID: instanceID(cfg),
		logger:     slog.Default(),
	}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	// ===== Initialize Redis (optional) =====
	var redisClient *redis.Client
	var bus driven.RebuildBus
	lockBackend := config.BackendNone
	if cfg.Redis.URL != "" {
		log.Println("Connecting to Redis...")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse Redis URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, redisClient.Close)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to Redis: %w", err)
		}
		log.Println("Redis connected")

		a.lock = redisadapter.NewLock(redisClient, a.instanceID)
		lockBackend = config.BackendRedis
		redisBus := redisadapter.NewRebuildBus(redisClient, a.logger)
		a.closers = append(a.closers, redisBus.Close)
		bus = redisBus
		log.Println("Using Redis distributed lock and rebuild bus")
	}

	if cfg.Conversation.Backend == config.BackendRedis {
		a.conversationStore = redisadapter.NewConversationStore(redisClient, cfg.Conversation.TTL)
		log.Println("Using Redis conversation store")
	}

	// ===== Initialize seed store (optional) =====
	switch cfg.Seeds.Backend {
	case config.BackendPostgres:
		log.Println("Connecting to PostgreSQL...")
		dbCfg := postgres.DefaultConfig(cfg.Database.URL)
		dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
		dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns
		dbCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
		dbCfg.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime

		db, err := postgres.Connect(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.InitSchema(ctx); err != nil {
			return nil, err
		}
		log.Println("PostgreSQL connected and schema initialized")

		a.seedStore = postgres.NewSeedStore(db)
		if a.lock == nil {
			a.lock = postgres.NewAdvisoryLock(db)
			lockBackend = config.BackendPostgres
			log.Println("Using PostgreSQL advisory lock")
		}
	case config.BackendSQLite:
		store, err := sqlite.NewSeedStore(cfg.Seeds.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open seed store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.seedStore = store
		log.Printf("Using SQLite seed store at %s", cfg.Seeds.SQLitePath)
	}

	// ===== Initialize feedback store (optional) =====
	switch cfg.Feedback.Backend {
	case config.BackendRedis:
		a.feedbackStore = redisadapter.NewFeedbackStore(redisClient, cfg.Feedback.TTL)
		log.Println("Using Redis feedback store")
	case config.BackendSQLite:
		store, err := sqlite.NewFeedbackStore(cfg.Feedback.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open feedback store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.feedbackStore = store
		log.Printf("Using SQLite feedback store at %s", cfg.Feedback.SQLitePath)
	}

	// ===== Runtime services =====
	a.services = runtime.NewServices(domain.Backends{
		Conversation: backendName(cfg.Conversation.Backend),
		Seeds:        backendName(cfg.Seeds.Backend),
		Lock:         lockBackend,
		Feedback:     backendName(cfg.Feedback.Backend),
	}, a.logger)
	a.closers = append(a.closers, a.services.Close)

	// Provider failures degrade the answer path instead of aborting startup
	if err := a.services.Configure(ctx, ai.NewFactory(), cfg.AI, cfg.ProbeAI); err != nil {
		log.Printf("Warning: AI services partially configured: %v", err)
	}

	// ===== Core services =====
	source, err := kbfile.NewLoader(cfg.KnowledgeBase.Path)
	if err != nil {
		return nil, err
	}

	a.index = services.NewKnowledgeIndex(a.services, services.KnowledgeIndexConfig{
		SeedStore:     a.seedStore,
		Source:        source,
		BatchSize:     cfg.KnowledgeBase.BatchSize,
		ExtraEntities: cfg.KnowledgeBase.ExtraEntities,
		Logger:        a.logger,
	})

	gateway := services.NewLLMGateway(a.services, services.LLMGatewayConfig{
		SystemPrompt:   cfg.Answer.SystemPrompt,
		PostProcessors: postprocessors.DefaultPipeline(),
		Logger:         a.logger,
	})

	answerCfg := services.DefaultAnswerServiceConfig()
	answerCfg.Normaliser = normalisers.DefaultRegistry()
	answerCfg.SearchOptions = cfg.SearchOptions()
	answerCfg.ConversationStore = a.conversationStore
	answerCfg.Lock = a.lock
	answerCfg.Feedback = a.feedbackStore
	answerCfg.Logger = a.logger
	if cfg.Answer.FallbackText != "" {
		answerCfg.FallbackText = cfg.Answer.FallbackText
	}
	a.answers = services.NewAnswerService(a.index, gateway, a.services, answerCfg)
	a.feedback = services.NewFeedbackService(a.feedbackStore, services.FeedbackServiceConfig{Logger: a.logger})

	a.worker = worker.NewIndexWorker(worker.IndexWorkerConfig{
		Index:      a.index,
		Bus:        bus,
		InstanceID: a.instanceID,
		Logger:     a.logger,
	})

	ok = true
	return a, nil
}

// backends returns the health checks exposed on /ready
func (a *app) backends() map[string]http.Pinger {
	checks := make(map[string]http.Pinger)
	if a.seedStore != nil {
		checks["seed_store"] = a.seedStore
	}
	if a.conversationStore != nil {
		checks["conversation_store"] = a.conversationStore
	}
	if a.feedbackStore != nil {
		checks["feedback_store"] = a.feedbackStore
	}
	if a.lock != nil {
		checks["lock"] = a.lock
	}
	return checks
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func instanceID(cfg *config.Config) string {
	if cfg.InstanceID == "" {
		cfg.InstanceID = redisadapter.GenerateOwnerID()
	}
	return cfg.InstanceID
}

func backendName(name string) string {
	if name == "" {
		return config.BackendNone
	}
	return name
}

// setupLogger installs the default slog handler
func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
