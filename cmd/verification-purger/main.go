package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	identitypostgres "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/persistence/postgres"
	platformobservability "github.com/KwakOri/lucent-sub001/internal/platform/observability"
	platformpostgres "github.com/KwakOri/lucent-sub001/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: platformobservability.ParseLevel(os.Getenv("LOG_LEVEL")),
	}))
	db, cleanup := platformpostgres.ConnectOptional(ctx, os.Getenv("POSTGRES_DSN"), logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge verifications")
	}

	store := identitypostgres.NewVerificationStore(db)
	purged, err := store.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Fatalf("failed to purge verifications: %v", err)
	}
	logger.Info("verification purge completed", slog.Int64("purged", purged))
}
