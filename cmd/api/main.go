package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisclient "github.com/redis/go-redis/v9"

	"github.com/neurodex/neurodex/internal/api"
	"github.com/neurodex/neurodex/internal/core/ports"
	"github.com/neurodex/neurodex/internal/core/service"
	"github.com/neurodex/neurodex/internal/infrastructure/cache"
	"github.com/neurodex/neurodex/internal/infrastructure/config"
	"github.com/neurodex/neurodex/internal/infrastructure/db/postgres"
	"github.com/neurodex/neurodex/internal/infrastructure/db/redis"
	"github.com/neurodex/neurodex/internal/infrastructure/email"
	"github.com/neurodex/neurodex/internal/infrastructure/importer"
	"github.com/neurodex/neurodex/pkg/logger"
)

// @title        Neurodex API
// @version      1.0
// @description  Backend for visually composing neural network models.
// @BasePath     /
func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	// --- Postgres ---
	db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer func() { _ = db.Close() }()

	if err := postgres.ApplySchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	// --- Redis (optional) ---
	var rdb *redisclient.Client
	var catalogCache ports.CatalogCache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer func() { _ = rdb.Close() }()
		catalogCache = redis.NewCatalogCache(rdb, log)
	} else {
		log.Info().Msg("REDIS_ADDR not set, using in-process catalog cache")
	}

	// --- Collaborators ---
	var sender ports.EmailSender = email.NewLogSender(cfg.BaseURL, log)
	if cfg.Sendgrid.APIKey != "" {
		sender = email.NewSendgridSender(cfg.Sendgrid.APIKey, cfg.BaseURL, log)
	} else {
		log.Warn().Msg("SENDGRID_API_KEY not set, confirmation emails will be logged only")
	}

	// --- Repositories and services ---
	userRepo := postgres.NewUserRepository(db)
	modelRepo := postgres.NewModelRepository(db)
	registry := cache.NewCachedRegistry(postgres.NewCatalogRepository(db), catalogCache, log)

	authService := service.NewAuthService(userRepo, sender, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, log)
	modelService := service.NewModelService(modelRepo, registry, log)
	catalogService := service.NewCatalogService(registry, importer.NewTorchImporter(), userRepo, modelRepo, log)

	e := api.NewRouter(api.RouterConfig{
		AuthService:    authService,
		ModelService:   modelService,
		CatalogService: catalogService,
		DB:             db,
		Redis:          rdb,
		JWTSecret:      cfg.JWTSecret,
		AccessTTL:      cfg.AccessTokenTTL,
		RefreshTTL:     cfg.RefreshTokenTTL,
		SecureCookies:  cfg.Env != "development",
		Logger:         log,
	})

	// --- Serve with graceful shutdown ---
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("neurodex api started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("neurodex api stopped")
}
