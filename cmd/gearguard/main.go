package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gearguard/gearguard/internal/api"
	"github.com/gearguard/gearguard/internal/core/ports"
	"github.com/gearguard/gearguard/internal/core/service"
	"github.com/gearguard/gearguard/internal/infrastructure/config"
	mongostore "github.com/gearguard/gearguard/internal/infrastructure/db/mongo"
	redisstore "github.com/gearguard/gearguard/internal/infrastructure/db/redis"
	"github.com/gearguard/gearguard/internal/infrastructure/local"
	"github.com/gearguard/gearguard/internal/infrastructure/queue"
	"github.com/gearguard/gearguard/pkg/logger"

	redisdriver "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx := context.Background()

	var (
		store   ports.CredentialStore
		revoker ports.TokenRevoker
		otps    ports.OTPStore
		mongoDB *mongodriver.Database
		rdb     *redisdriver.Client
	)

	switch cfg.StoreBackend {
	case "mongo":
		client, db, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongodb")
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()
		mongoDB = db

		credStore := mongostore.NewCredentialStore(db)
		if err := credStore.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure mongodb indexes")
		}
		store = credStore

		rdb, err = redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()

		revoker = redisstore.NewTokenDenylist(rdb)
		otps = redisstore.NewOTPStore(rdb)

	case "local":
		// Demo mode: file-backed users, everything else in-process.
		localStore, err := local.Open(cfg.LocalStorePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open local store")
		}
		store = localStore
		revoker = local.NewDenylist()
		otps = local.NewOTPStore()

	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}

	// Mail is optional: without a broker the API still works, account and
	// reset mails are just not sent.
	var mail ports.MailPublisher
	conn, ch, err := queue.Connect(cfg.RabbitMQ.DSN)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, mail disabled")
	} else {
		defer conn.Close()
		defer ch.Close()
		mail = queue.NewMailPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	}

	authService := service.NewAuthService(
		store, revoker, otps, mail,
		cfg.JWTSecret, time.Duration(cfg.TokenTTL)*time.Hour, log,
	)

	e := api.NewRouter(api.RouterDeps{
		AuthService: authService,
		Revoker:     revoker,
		JWTSecret:   cfg.JWTSecret,
		Mongo:       mongoDB,
		Redis:       rdb,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  api.ReadTimeout,
		WriteTimeout: api.WriteTimeout,
		IdleTimeout:  api.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.StoreBackend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
