package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reingma/newsletter/internal/api"
	"github.com/reingma/newsletter/internal/api/flash"
	"github.com/reingma/newsletter/internal/api/handler"
	"github.com/reingma/newsletter/internal/core/service"
	"github.com/reingma/newsletter/internal/infrastructure/config"
	"github.com/reingma/newsletter/internal/infrastructure/db/postgres"
	"github.com/reingma/newsletter/internal/infrastructure/db/redis"
	"github.com/reingma/newsletter/internal/infrastructure/email"
	"github.com/reingma/newsletter/internal/infrastructure/queue"
	"github.com/reingma/newsletter/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		fallback := logger.Get()
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Storage ---
	if err := postgres.RunMigrations(ctx, cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	pool, err := postgres.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	rdb, err := redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	// --- Collaborators ---
	emailClient := email.NewClient(cfg.Email.BaseURL, cfg.Email.Sender, cfg.Email.AuthToken, cfg.Email.Timeout)
	hashPool := queue.NewPool(cfg.HashWorkers, log)
	defer hashPool.Close()

	// --- Repositories & services ---
	users := postgres.NewUserRepository(pool)
	subscribers := postgres.NewSubscriberStore(pool)
	idempotency := postgres.NewIdempotencyStore(pool)
	sessions := redis.NewSessionStore(rdb)
	flashCodec := flash.NewCodec(cfg.HMACSecret, flash.Mode(cfg.FlashMode), log)

	authService := service.NewAuthService(users, service.NewPasswordHasher(), hashPool, log)
	subscriptionService := service.NewSubscriptionService(subscribers, emailClient, cfg.BaseURL, log)
	newsletterService := service.NewNewsletterService(idempotency, subscribers, emailClient, log)

	e := api.NewRouter(api.Deps{
		Auth:          authService,
		Subscriptions: subscriptionService,
		Newsletters:   newsletterService,
		Sessions:      sessions,
		Flash:         flashCodec,
		SessionTTL:    cfg.SessionTTL,
		PostgresPing:  handler.PingerFunc(pool.Ping),
		RedisPing: handler.PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}),
		Log: log,
	})

	// --- Serve ---
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("newsletter service started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
