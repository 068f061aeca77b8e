package api

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"github.com/KwakOri/lucent-sub001/internal/platform/auth"
	platformkafka "github.com/KwakOri/lucent-sub001/internal/platform/kafka"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

const DefaultAuditTopic = "lucent.orders.audit"

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	RedisAddr         string
	KafkaBrokers      []string
	KafkaAuditTopic   string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	Auth              auth.Config
	DownloadBaseURL   string
	DownloadSecret    string
	DownloadTTL       time.Duration
	BulkConcurrency   int
	AllowedOrigins    []string
}

// LoadConfig reads the environment, applying a local .env file first when one exists.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if val := strings.TrimSpace(getenv(key)); val != "" {
			return val
		}
		return fallback
	}

	cfg := Config{
		Port:              env("PORT", "8080"),
		PostgresDSN:       env("POSTGRES_DSN", ""),
		RedisAddr:         env("REDIS_ADDR", ""),
		KafkaBrokers:      platformkafka.ParseBrokers(getenv("KAFKA_BROKERS")),
		KafkaAuditTopic:   env("KAFKA_AUDIT_TOPIC", DefaultAuditTopic),
		TemporalAddress:   env("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: env("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(getenv("TEMPORAL_DISABLED")),
		Auth: auth.Config{
			SigningSecret: env("AUTH_SIGNING_SECRET", ""),
			Issuer:        env("AUTH_ISSUER", ""),
			AdminEmails:   auth.ParseEmailList(getenv("ADMIN_EMAILS")),
		},
		DownloadBaseURL: env("DOWNLOAD_BASE_URL", ""),
		DownloadSecret:  env("DOWNLOAD_SIGNING_SECRET", ""),
		AllowedOrigins:  splitList(getenv("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.Auth.SessionTTL, err = minutes(getenv, "AUTH_SESSION_TTL_MINUTES"); err != nil {
		return Config{}, err
	}
	if cfg.DownloadTTL, err = minutes(getenv, "DOWNLOAD_TTL_MINUTES"); err != nil {
		return Config{}, err
	}
	cfg.BulkConcurrency = bulk.DefaultConcurrency
	if raw := strings.TrimSpace(getenv("BULK_CONCURRENCY")); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n <= 0 {
			return Config{}, fmt.Errorf("BULK_CONCURRENCY must be a positive integer")
		}
		cfg.BulkConcurrency = n
	}

	cfg.Auth = cfg.Auth.WithDefaults()
	if err := cfg.Auth.Validate(); err != nil {
		return Config{}, fmt.Errorf("AUTH_SIGNING_SECRET: %w", err)
	}
	if cfg.DownloadBaseURL != "" && cfg.DownloadSecret == "" {
		cfg.DownloadSecret = cfg.Auth.SigningSecret
	}
	return cfg, nil
}

func minutes(getenv func(string) string, key string) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return time.Duration(n) * time.Minute, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
