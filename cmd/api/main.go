package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/identity-service/internal/api/http"
	"github.com/spec-kit/identity-service/internal/api/http/handlers"
	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/persistence"
	"github.com/spec-kit/identity-service/internal/repository"
	"github.com/spec-kit/identity-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var users repository.UserStore
	if pg != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.DB(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		users = repository.NewUserRepository(pg.DB())
	} else {
		logger.Warn("using in-memory user store; accounts are lost on restart")
		users = repository.NewMemoryUserStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	if redis != nil {
		users = repository.NewCachedUserStore(users, redis.Client, cfg.Cache.UserViewTTL(), logger)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	identityService := service.NewIdentityService(service.IdentityDependencies{
		UserStore: users,
		Hasher:    auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens:    tokens,
		Logger:    logger,
		Metrics:   metrics,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var pgPinger, redisPinger handlers.Pinger
	if pg != nil {
		pgPinger = pg
	}
	if redis != nil {
		redisPinger = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pgPinger, redisPinger),
		Users:          handlers.NewUsersHandler(identityService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
