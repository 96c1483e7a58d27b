// cmd/chat-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"interview-agent/internal/api"
	"interview-agent/internal/catalog"
	"interview-agent/internal/chat"
	"interview-agent/internal/common/config"
	"interview-agent/internal/common/database"
	"interview-agent/internal/common/logger"
	"interview-agent/internal/common/observability"
	"interview-agent/internal/genai"
	"interview-agent/internal/intent"
	"interview-agent/internal/quota"
	"interview-agent/internal/store"
	"interview-agent/internal/strategy"
	"interview-agent/internal/stream"
	"interview-agent/internal/tools"
	"interview-agent/internal/usage"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
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

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chat server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	jaegerEndpoint := ""
	if cfg.Tracing.Enabled {
		jaegerEndpoint = cfg.Tracing.Endpoint
	}
	obs := observability.New(cfg.App.Name, jaegerEndpoint)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Stores ---
	chatStore := store.NewPostgresStore(pg.DB)
	counterStore := store.NewRedisStore(redis.Client)

	// --- Generation backend ---
	genaiClient := genai.NewClient(cfg.GenAI, log)

	// --- Tools ---
	toolRegistry, err := tools.NewRegistry(log,
		tools.NewScoreSkills(),
		tools.NewResumeTemplate(),
	)
	if err != nil {
		zapLog.Fatal("tool registry init failed", zap.Error(err))
	}

	// --- Strategies ---
	strategies := strategy.NewRegistry(
		strategy.NewDefault(genaiClient, cfg.GenAI, cfg.Strategies.Default),
		strategy.NewResumeOpt(genaiClient, cfg.GenAI.ModelID(cfg.Strategies.ResumeOpt.Model), cfg.Strategies.ResumeOpt, toolRegistry),
		strategy.NewMockInterview(genaiClient, cfg.GenAI.ModelID(cfg.Strategies.MockInterview.Model), cfg.Strategies.MockInterview),
	)

	// --- Classifier ---
	classifier, err := intent.NewClassifier(genaiClient, cfg.GenAI.ModelID(cfg.Strategies.Default.Model), log)
	if err != nil {
		zapLog.Fatal("classifier init failed", zap.Error(err))
	}

	// --- Usage normalization ---
	pricingCatalog := catalog.NewClient(
		cfg.Catalog.URL,
		time.Duration(cfg.Catalog.Timeout)*time.Millisecond,
		time.Duration(cfg.Catalog.RefreshTTL)*time.Second,
		log,
	)
	normalizer := usage.NewNormalizer(pricingCatalog, log)
	merger := stream.NewMerger(normalizer, log)

	// --- Pipeline ---
	gate := quota.NewGate(counterStore, chatStore, cfg.Entitlements, log)
	titler := chat.NewTitler(genaiClient, cfg.GenAI.ModelID("title-model"), log)
	service := chat.NewService(gate, chatStore, counterStore, classifier, strategies, merger, titler, obs, log)

	// --- HTTP ---
	handler := api.NewHandler(service, log)
	server := api.NewServer(cfg.Server, cfg.App.Environment, handler, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		zapLog.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}

	zapLog.Info("Chat server stopped")
}
