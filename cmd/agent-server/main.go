package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"restaurant-agent/internal/agent"
	"restaurant-agent/internal/api"
	"restaurant-agent/internal/catalog"
	"restaurant-agent/internal/common/camunda"
	"restaurant-agent/internal/common/config"
	"restaurant-agent/internal/common/database"
	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/common/observability"
	"restaurant-agent/internal/oracle"
	"restaurant-agent/internal/search"
	"restaurant-agent/internal/session"

	sr "restaurant-agent/internal/workers/catalog/search-restaurants"
	ac "restaurant-agent/internal/workers/conversation/agent-chat"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file; defaults to configs/config.yaml with environment overlays")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting agent server",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()
	closers := []func() error{}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	// --- Catalog ---
	src, closeSrc, err := catalogSource(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("catalog source init failed", zap.Error(err))
	}
	if closeSrc != nil {
		closers = append(closers, closeSrc)
	}

	cat, err := catalog.Load(ctx, src, log)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}
	engine := search.NewEngine(cat, search.WithDefaultLimit(cfg.Search.DefaultLimit))

	// --- Oracle ---
	backend, closeBackend, err := oracleBackend(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("oracle init failed", zap.Error(err))
	}
	if closeBackend != nil {
		closers = append(closers, closeBackend)
	}

	orchestrator := agent.New(
		oracle.NewClassifier(backend, log, oracle.WithLabelTokens(cfg.APIs.GenAI.LabelMaxTokens)),
		oracle.NewExtractor(backend, log, oracle.WithSlotTokens(cfg.APIs.GenAI.SlotMaxTokens)),
		engine,
		log,
		agent.WithReservationName(cfg.Agent.DefaultReservationName),
		agent.WithObservability(obs),
	)

	// --- Session store ---
	var store api.ContextStore
	if cfg.Database.Redis.Address != "" {
		rc, err := database.Connect(ctx, "Redis", database.DefaultRetryPolicy, log, func() (*database.SessionRedis, error) {
			return database.OpenSessionRedis(cfg.Database.Redis, cfg.App.Name)
		})
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		closers = append(closers, rc.Close)
		store = session.NewStore(rc.Client, session.Config{
			ContextTTL: config.GetDuration(cfg.Conversation.ContextTTL),
			LockTTL:    config.GetDuration(cfg.Conversation.LockTTL),
		}, log)
	} else {
		zapLog.Warn("no redis configured, callers must round-trip the conversation context")
	}

	// --- Zeebe workers ---
	var workers []*camunda.Worker
	if cfg.Camunda.BrokerAddress != "" {
		zc, err := camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		closers = append(closers, zc.Close)
		zapLog.Info("Zeebe client connected successfully")

		acCfg := config.GetWorkerConfig(cfg, ac.TaskType)
		acHandler := ac.NewHandler(&ac.Config{Timeout: workerTimeout(acCfg, ac.LoadConfig().Timeout)}, orchestrator, &agentChatLoggerAdapter{log})
		workers = append(workers, camunda.StartWorker(zc.Zeebe(), ac.TaskType, acCfg, acHandler, zapLog))

		srCfg := config.GetWorkerConfig(cfg, sr.TaskType)
		srHandler := sr.NewHandler(&sr.Config{Timeout: workerTimeout(srCfg, 10*time.Second)}, engine, &searchRestaurantsLoggerAdapter{log})
		workers = append(workers, camunda.StartWorker(zc.Zeebe(), sr.TaskType, srCfg, srHandler, zapLog))
	}

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Dependencies{
		Agent:         orchestrator,
		Engine:        engine,
		Store:         store,
		Observability: obs,
		Logger:        log,
		Options: api.Options{
			TurnTimeout:       config.GetDuration(cfg.Server.TurnTimeout),
			RequestsPerMinute: cfg.Server.RateLimit.RequestsPerMinute,
			Burst:             cfg.Server.RateLimit.Burst,
			AllowedOrigins:    cfg.Server.CORS.AllowedOrigins,
			TrustedProxies:    cfg.Server.TrustedProxies,
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("http server listening", zap.String("addr", srv.Addr), zap.Int("restaurants", cat.Len()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server and workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func workerTimeout(wcfg config.WorkerConfig, fallback time.Duration) time.Duration {
	if wcfg.Timeout > 0 {
		return config.GetDuration(wcfg.Timeout)
	}
	return fallback
}

// catalogSource builds the configured catalog source; the returned closer,
// when non-nil, releases the backing connection.
func catalogSource(ctx context.Context, cfg *config.Config, log logger.Logger) (catalog.Source, func() error, error) {
	policy := database.RetryPolicy{Attempts: 15, InitialDelay: 2 * time.Second}

	switch cfg.Catalog.Source {
	case config.CatalogSourcePostgres:
		pg, err := database.Connect(ctx, "PostgreSQL", policy, log, func() (*database.CatalogDB, error) {
			return database.OpenCatalogDB(cfg.Database.Postgres)
		})
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewPostgresSource(pg.DB, log), pg.Close, nil

	case config.CatalogSourceElasticsearch:
		es, err := database.Connect(ctx, "Elasticsearch", policy, log, func() (*database.CatalogIndex, error) {
			return database.OpenCatalogIndex(cfg.Database.Elasticsearch, cfg.Catalog.Index)
		})
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewElasticsearchSource(es.Client, es.Index, log), es.Close, nil

	default:
		return catalog.NewCSVSource(cfg.Catalog.RestaurantsFile, cfg.Catalog.CuisinesFile, log), nil, nil
	}
}

func oracleBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (oracle.Backend, func() error, error) {
	genai := cfg.APIs.GenAI
	if genai.Provider == config.GenAIProviderGemini {
		g, err := oracle.NewGeminiBackend(ctx, genai.APIKey, genai.Model)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	}

	return oracle.NewHTTPBackend(oracle.HTTPConfig{
		BaseURL: genai.BaseURL,
		APIKey:  genai.APIKey,
		Model:   genai.Model,
		Timeout: config.GetDuration(genai.Timeout),
	}, log), nil, nil
}

// Logger adapters bridge logger.Logger to each worker package's Logger.

type agentChatLoggerAdapter struct {
	logger.Logger
}

func (a *agentChatLoggerAdapter) With(fields map[string]interface{}) ac.Logger {
	return &agentChatLoggerAdapter{a.Logger.With(fields)}
}

type searchRestaurantsLoggerAdapter struct {
	logger.Logger
}

func (a *searchRestaurantsLoggerAdapter) With(fields map[string]interface{}) sr.Logger {
	return &searchRestaurantsLoggerAdapter{a.Logger.With(fields)}
}
