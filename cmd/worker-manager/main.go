// cmd/worker-manager/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"matchmaking-workers/internal/api"
	"matchmaking-workers/internal/common/camunda"
	"matchmaking-workers/internal/common/config"
	"matchmaking-workers/internal/common/database"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/observability"
	"matchmaking-workers/internal/embedding"
	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/store"
	"matchmaking-workers/pkg/registry"

	asg "matchmaking-workers/internal/workers/matchmaking/analyze-skill-gaps"
	atr "matchmaking-workers/internal/workers/matchmaking/analyze-team-radar"
	cc "matchmaking-workers/internal/workers/matchmaking/calculate-compatibility"
	mtu "matchmaking-workers/internal/workers/matchmaking/match-team-to-users"
	mut "matchmaking-workers/internal/workers/matchmaking/match-user-to-teams"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("Starting worker manager...", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"backend":     cfg.Matching.Backend,
	})

	if err := run(cfg, log); err != nil {
		log.Error("worker manager exited with error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("Worker manager stopped gracefully", nil)
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name, prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	health := database.NewHealth(3 * time.Second)

	// --- Init PostgreSQL with retry ---
	var pg *sql.DB
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(ctx, cfg.Database.Postgres)
		return err
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return err
	}
	defer pg.Close()
	health.Register("postgres", database.PostgresCheck(pg))
	log.Info("PostgreSQL connected successfully", nil)

	// --- Init Redis with retry ---
	var rdb *redis.Client
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(ctx, cfg.Database.Redis)
		return err
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		return err
	}
	defer rdb.Close()
	health.Register("redis", database.RedisCheck(rdb))
	log.Info("Redis connected successfully", nil)

	profiles := store.NewPostgresProfileStore(pg, log)
	var teams matching.TeamSource = profiles

	// --- Init Elasticsearch with retry (only when it serves candidates) ---
	if cfg.Matching.CandidateSource == config.SourceElasticsearch {
		var es *elasticsearch.Client
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return database.ElasticsearchCheck(es)(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			return err
		}
		health.Register("elasticsearch", database.ElasticsearchCheck(es))
		teams = store.NewElasticsearchTeamSearch(es, cfg.Database.Elasticsearch.TeamIndex, log)
		log.Info("Elasticsearch connected successfully", map[string]interface{}{"index": cfg.Database.Elasticsearch.TeamIndex})
	}

	engine, err := buildEngine(ctx, cfg, log)
	if err != nil {
		return err
	}

	matcher, err := matching.NewMatcher(engine, matcherConfig(cfg.Matching), log)
	if err != nil {
		return fmt.Errorf("matcher: %w", err)
	}

	service := matching.NewService(
		matcher,
		profiles,
		teams,
		store.NewRedisResultCache(rdb),
		store.NewPostgresScoreLedger(pg),
		&matching.ServiceConfig{
			CacheTTL:       time.Duration(cfg.Matching.CacheTTL) * time.Second,
			CandidateLimit: cfg.Matching.CandidateLimit,
			Tracer:         obs.Tracer(),
		},
		log,
	)

	// --- Zeebe workers ---
	if cfg.Camunda.Disabled {
		log.Warn("camunda disabled, serving HTTP API only", nil)
	} else {
		zeebe, err := camunda.Connect(ctx, camunda.ClientConfigFrom(cfg.Camunda), log)
		if err != nil {
			return err
		}
		defer zeebe.Close()
		health.Register("zeebe", zeebe.HealthCheck)
		log.Info("Zeebe client connected successfully", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})

		pool := camunda.NewPool(zeebe.GetClient(), obs, log)
		registerWorkers(pool, cfg, service, profiles, log)
		defer pool.Close()
	}

	// --- HTTP API ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(api.Config{
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, service, health, obs, log)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP API listening", map[string]interface{}{"address": cfg.HTTP.Address})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, stopping workers...", nil)
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

func buildEngine(ctx context.Context, cfg *config.Config, log logger.Logger) (matching.SimilarityEngine, error) {
	switch cfg.Matching.Backend {
	case config.BackendSemantic:
		embedder, err := embedding.NewGeminiEmbedder(ctx, cfg.Embedding.APIKey, cfg.Embedding.Model,
			config.GetDuration(cfg.Embedding.Timeout), log)
		if err != nil {
			return nil, fmt.Errorf("embedding client: %w", err)
		}
		log.Info("semantic similarity enabled", map[string]interface{}{"model": embedder.Model()})
		return matching.NewSemanticEngine(embedder), nil
	default:
		return matching.NewTFIDFEngine(cfg.Matching.MaxFeatures), nil
	}
}

func matcherConfig(m config.MatchingConfig) *matching.Config {
	parallelism := m.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &matching.Config{
		Weights: matching.Weights{
			Skill:        m.Weights.Skill,
			Experience:   m.Weights.Experience,
			Interest:     m.Weights.Interest,
			Availability: m.Weights.Availability,
		},
		Threshold:         m.Threshold,
		Limit:             m.Limit,
		Availability:      matching.AvailabilityPolicyByName(m.AvailabilityPolicy),
		Parallelism:       parallelism,
		ParallelThreshold: m.ParallelThreshold,
	}
}

func registerWorkers(pool *camunda.Pool, cfg *config.Config, service *matching.Service, profiles *store.PostgresProfileStore, log logger.Logger) {
	started := 0

	if wcfg := config.GetWorkerConfig(cfg, mut.TaskType); pool.Start(mut.TaskType, wcfg,
		mut.NewHandler(mut.ConfigFrom(wcfg), service, log)) {
		started++
	}
	if wcfg := config.GetWorkerConfig(cfg, mtu.TaskType); pool.Start(mtu.TaskType, wcfg,
		mtu.NewHandler(mtu.ConfigFrom(wcfg), service, log)) {
		started++
	}
	if wcfg := config.GetWorkerConfig(cfg, cc.TaskType); pool.Start(cc.TaskType, wcfg,
		cc.NewHandler(cc.ConfigFrom(wcfg), service, cfg.Matching.Threshold, log)) {
		started++
	}
	if wcfg := config.GetWorkerConfig(cfg, asg.TaskType); pool.Start(asg.TaskType, wcfg,
		asg.NewHandler(asg.ConfigFrom(wcfg), profiles, log)) {
		started++
	}
	if wcfg := config.GetWorkerConfig(cfg, atr.TaskType); pool.Start(atr.TaskType, wcfg,
		atr.NewHandler(atr.ConfigFrom(wcfg), log)) {
		started++
	}

	log.Info("matchmaking workers registered", map[string]interface{}{
		"started":   started,
		"taskTypes": pool.TaskTypes(),
	})

	reg, err := registry.LoadRegistry(cfg.App.ActivityRegistry)
	if err != nil {
		log.Warn("activity registry not loaded", map[string]interface{}{"path": cfg.App.ActivityRegistry, "error": err.Error()})
		return
	}
	if missing := reg.Missing(pool.TaskTypes()); len(missing) > 0 {
		log.Warn("workers started without a registry entry", map[string]interface{}{"taskTypes": missing})
	}
}
