package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collab-events/internal/config"
	"collab-events/internal/database"
	httpapi "collab-events/internal/http"
	"collab-events/internal/logger"
	"collab-events/internal/metrics"
	"collab-events/internal/service"
	"collab-events/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "collab-events")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	gw := database.NewGateway(db, log)

	if cfg.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := gw.EnsureSchema(ctx)
		cancel()
		if err != nil {
			log.Fatal("Failed to apply schema", zap.Error(err))
		}
		log.Info("Schema ensured")
	}

	// Revoked tokens live in Redis; without it they only survive until restart.
	var revoked store.KV = store.NewMemoryKV()
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Warn("Redis unavailable, using in-memory revocation list", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			revoked = store.NewRedisKV(redisClient)
		}
	}

	repos := service.NewPostgresRepositories()
	evaluator := service.NewPermissionEvaluator(gw, repos, log)
	events := service.NewEventService(gw, repos, evaluator, cfg.VersionMaxAttempts, log)
	history := service.NewHistoryService(gw, repos, evaluator, cfg.VersionMaxAttempts, log)
	collab := service.NewCollaborationService(gw, repos, evaluator, log)
	auth := service.NewAuthService(gw, repos, revoked, cfg.Auth, log)

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(gw, log))
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(auth, log))
	router.RegisterEventRoutes(auth, evaluator, httpapi.EventRoutes{
		Events:        httpapi.NewEventHandler(events, log),
		History:       httpapi.NewHistoryHandler(history, log),
		Collaboration: httpapi.NewCollaborationHandler(collab, log),
	})
	if cfg.MetricsOn {
		router.HandleHandler("/metrics", metrics.Handler())
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("Graceful shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
