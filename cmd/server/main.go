package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/cache"
	"github.com/anonto42/circle/backend/internal/handlers"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/internal/router"
	"github.com/anonto42/circle/backend/internal/storage"
	"github.com/anonto42/circle/backend/pkg/config"
	"github.com/anonto42/circle/backend/pkg/firebase"
	"github.com/anonto42/circle/backend/pkg/logger"
	"github.com/anonto42/circle/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "circle-api"})
	log := logger.L()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize databases")
	}
	defer db.CloseDB()

	ctx := context.Background()
	mongoDB := db.Mongo.Database(cfg.MongoDB)
	if err := repositories.NewMongoPostRepository(mongoDB).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create post indexes")
	}

	deps := router.Dependencies{
		Config:   cfg,
		Postgres: db.Postgres,
		Mongo:    mongoDB,
		Cache:    newCache(cfg),
	}
	defer deps.Cache.Close()

	// Firebase is optional
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize firebase")
	}
	if firebaseApp != nil {
		deps.FirebaseAuth = firebaseApp.AuthClient
	}

	if presigner := newPresigner(ctx, cfg); presigner != nil {
		deps.Presigner = presigner
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e)

	if err := router.SetupRoutes(e, deps); err != nil {
		log.Fatal().Err(err).Msg("failed to set up routes")
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server exited")
}

// newCache prefers Redis and falls back to an in-process cache when Redis is
// not configured or unreachable.
func newCache(cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		logger.L().Info().Msg("redis not configured, using in-memory cache")
		return cache.NewMemoryCache()
	}
	rc, err := cache.NewRedisCache(cache.RedisConfig{
		Address:  cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.L().Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		return cache.NewMemoryCache()
	}
	return rc
}

// newPresigner returns nil when no bucket is configured.
func newPresigner(ctx context.Context, cfg *config.Config) handlers.Presigner {
	if cfg.S3.Bucket == "" {
		logger.L().Info().Msg("s3 bucket not configured, media uploads disabled")
		return nil
	}
	p, err := storage.NewS3Presigner(ctx, storage.S3Config(cfg.S3))
	if err != nil {
		logger.L().Warn().Err(err).Msg("failed to initialize s3 presigner, media uploads disabled")
		return nil
	}
	return p
}
