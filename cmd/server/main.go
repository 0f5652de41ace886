// Command server runs the Sentra insider-threat monitoring service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	appservice "github.com/sentrasec/sentra/internal/application/service"
	"github.com/sentrasec/sentra/internal/config"
	domainservice "github.com/sentrasec/sentra/internal/domain/service"
	"github.com/sentrasec/sentra/internal/infrastructure/explain"
	"github.com/sentrasec/sentra/internal/infrastructure/monitoring"
	"github.com/sentrasec/sentra/internal/infrastructure/persistence/postgres"
	"github.com/sentrasec/sentra/internal/infrastructure/persistence/redis"
	"github.com/sentrasec/sentra/internal/infrastructure/secrets"
	"github.com/sentrasec/sentra/internal/infrastructure/stream"
	"github.com/sentrasec/sentra/internal/interfaces/http/handlers"
	"github.com/sentrasec/sentra/internal/interfaces/http/middleware"
	"github.com/sentrasec/sentra/internal/interfaces/http/router"
	"github.com/sentrasec/sentra/pkg/logger"
)

func main() {
	startupLogger, _ := monitoring.NewZapLogger(&config.LogConfig{Level: "info", Format: "json"})

	// The reload hook fires on config file changes, long after appLogger
	// is assigned below.
	var appLogger *monitoring.ZapLogger
	cfg, err := config.LoadConfig(startupLogger, func(reloaded *config.Config) {
		if appLogger != nil {
			appLogger.SetLevel(reloaded.Log.Level)
		}
	})
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err = monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	ctx := context.Background()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracing", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	db, err := postgres.NewDBConnection(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to connect to database", err)
	}
	defer db.Close()

	redisConn, err := redis.NewConnection(ctx, &cfg.Redis, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to connect to Redis", err)
	}
	defer redisConn.Close()

	profileRepo := postgres.NewProfileRepository(db.DB(), appLogger)
	activityRepo := postgres.NewActivityRepository(db.DB(), appLogger)
	threatRepo := postgres.NewThreatRepository(db.DB(), appLogger)
	notificationRepo := postgres.NewNotificationRepository(db.DB(), appLogger)
	predictionRepo := postgres.NewPredictionRepository(db.DB(), appLogger)

	var keys explain.KeyProvider
	if cfg.Vault.Enabled {
		vaultKeys, err := secrets.NewVaultKeyProvider(&cfg.Vault, appLogger)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to initialize Vault key provider", err)
		}
		keys = vaultKeys
	}
	explainer := explain.NewClient(&cfg.Explain, keys, appLogger)

	var publisher domainservice.ActivityPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := stream.NewKafkaPublisher(&cfg.Kafka, appLogger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	feed := redis.NewPredictionFeed(redisConn.Client(), appLogger)

	activityService := appservice.NewActivityService(
		profileRepo, activityRepo, threatRepo, notificationRepo,
		domainservice.NewThreatAnalyzer(), explainer, publisher,
		metrics, appLogger, cfg.Explain.Timeout,
	)
	predictionService := appservice.NewPredictionService(
		predictionRepo, profileRepo, feed, metrics, appLogger,
	)

	// The watch loop keeps derived prediction state fresh for the API.
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		for {
			if err := predictionService.Watch(watchCtx); err != nil {
				if watchCtx.Err() != nil {
					return
				}
				appLogger.Warn(watchCtx, "Prediction feed subscription lost, reconnecting",
					logger.Error(err))
				time.Sleep(time.Second)
			}
		}
	}()

	httpRouter := router.NewRouter(cfg, appLogger, router.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.HealthChecker{
			"database": db,
			"redis":    redisConn,
		}),
		Activity:     handlers.NewActivityHandler(activityService, metrics, appLogger),
		Threat:       handlers.NewThreatHandler(threatRepo, appLogger),
		Notification: handlers.NewNotificationHandler(notificationRepo, profileRepo, appLogger),
		Prediction:   handlers.NewPredictionHandler(predictionService, appLogger),
	}, middleware.RequireJWT(&cfg.Auth, appLogger), registry)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpRouter.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Fatal(ctx, "HTTP server failed", err)
		}
	case sig := <-quit:
		appLogger.Info(ctx, "Shutting down", logger.String("signal", sig.String()))
	}

	stopWatch()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpRouter.Stop(shutdownCtx); err != nil {
		appLogger.Error(ctx, "Forced HTTP server shutdown", err)
	}
	appLogger.Info(ctx, "Server stopped")
}
