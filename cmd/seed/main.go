package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/gearguard/gearguard/internal/core/domain"
	"github.com/gearguard/gearguard/internal/core/ports"
	"github.com/gearguard/gearguard/internal/infrastructure/config"
	mongostore "github.com/gearguard/gearguard/internal/infrastructure/db/mongo"
	"github.com/gearguard/gearguard/internal/infrastructure/local"
	"github.com/gearguard/gearguard/pkg/logger"
)

// seed inserts one demo account per role. Reruns are harmless: existing
// accounts are skipped.
func main() {
	var password string
	flag.StringVar(&password, "password", "", "password for seeded accounts (defaults to SEED_PASSWORD)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})

	if password == "" {
		password = cfg.Seed.Password
	}

	ctx := context.Background()

	var store ports.CredentialStore
	switch cfg.StoreBackend {
	case "mongo":
		client, db, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongodb")
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		credStore := mongostore.NewCredentialStore(db)
		if err := credStore.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure mongodb indexes")
		}
		store = credStore
	case "local":
		localStore, err := local.Open(cfg.LocalStorePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open local store")
		}
		store = localStore
	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}

	created := 0
	for _, role := range domain.AllRoles() {
		name := strings.ToLower(string(role))
		user := &domain.User{
			Username: name,
			Email:    fmt.Sprintf("%s@%s", name, cfg.Seed.Domain),
			FullName: "Demo " + strings.ToUpper(name[:1]) + name[1:],
			Role:     role,
			Active:   true,
		}

		if _, err := store.Create(ctx, user, password); err != nil {
			if errors.Is(err, domain.ErrDuplicateEmail) {
				log.Info().Str("email", user.Email).Msg("account exists, skipping")
				continue
			}
			log.Fatal().Err(err).Str("email", user.Email).Msg("failed to seed account")
		}

		log.Info().Str("email", user.Email).Str("role", string(role)).Msg("seeded account")
		created++
	}

	log.Info().Int("created", created).Msg("seed complete")
}
