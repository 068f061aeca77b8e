package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	lucentserver "github.com/KwakOri/lucent-sub001/go"

	identitymailer "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/mailer"
	identitymemory "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/memory"
	identityobs "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/observability"
	identitypostgres "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/persistence/postgres"
	identityredis "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/redis"
	identitysession "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/session"
	identityapp "github.com/KwakOri/lucent-sub001/internal/domains/identity/application"
	identityports "github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
	ordersaudit "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/audit"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/downloads"
	ordersmemory "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/memory"
	ordersobs "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/KwakOri/lucent-sub001/internal/domains/orders/application"
	ordersports "github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
	"github.com/KwakOri/lucent-sub001/internal/platform/auth"
	platformkafka "github.com/KwakOri/lucent-sub001/internal/platform/kafka"
	"github.com/KwakOri/lucent-sub001/internal/platform/metrics"
	"github.com/KwakOri/lucent-sub001/internal/platform/migrations"
	platformobservability "github.com/KwakOri/lucent-sub001/internal/platform/observability"
	platformpostgres "github.com/KwakOri/lucent-sub001/internal/platform/postgres"
	platformredis "github.com/KwakOri/lucent-sub001/internal/platform/redis"
)

const serviceName = "lucent-api"

// Run boots the Lucent HTTP API with observability, persistence, and workflows wired.
// It blocks until ctx is cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(serviceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger
	checks := map[string]lucentserver.HealthCheck{}

	db, closeDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	defer closeDB()
	if db != nil {
		if err := migrations.Run(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		checks["postgres"] = pingPostgres(db)
	}
	redisClient := connectRedis(ctx, cfg.RedisAddr, logger)
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to configure sessions: %w", err)
	}
	policy, err := auth.NewPolicy(auth.DefaultRules)
	if err != nil {
		return fmt.Errorf("failed to load access policy: %w", err)
	}

	auditSink, closeAudit := BuildAuditSink(cfg, db, logger)
	defer closeAudit()
	orderOpts := []ordersapp.Option{
		ordersapp.WithAuditSink(auditSink),
		ordersapp.WithLogger(logger),
		ordersapp.WithBulkConcurrency(cfg.BulkConcurrency),
	}
	if linker := buildDownloadLinker(cfg, logger); linker != nil {
		orderOpts = append(orderOpts, ordersapp.WithDownloadLinker(linker))
	}
	orderService := ordersobs.New(
		ordersapp.NewService(buildOrderRepository(db), orderOpts...),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	var orderWorkflows ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(orderService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running bulk updates inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orderWorkflows = ordersworkflows.NewTemporalOrderWorkflows(temporalClient, cfg.BulkConcurrency)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	users, verifications := buildIdentityStores(db, redisClient)
	identityService := identityobs.New(
		identityapp.NewService(
			users,
			verifications,
			identitymailer.NewLogMailer(logger),
			identitysession.NewJWTIssuer(tokens),
			identityapp.WithAdminPolicy(auth.NewAuthorizer(cfg.Auth.AdminEmails)),
			identityapp.WithLogger(logger),
		),
		identityobs.WithLogger(logger),
		identityobs.WithTracer(instruments.Tracer("internal.identity.application")),
		identityobs.WithMeter(instruments.Meter("internal.identity.application")),
	)

	router := lucentserver.NewRouter(lucentserver.ApiHandleFunctions{
		HealthAPI: lucentserver.NewHealthAPI(checks),
		AuthAPI:   lucentserver.NewAuthAPI(identityService),
		OrderAPI:  lucentserver.NewOrderAPI(orderService, orderWorkflows),
	}, lucentserver.RouterOptions{
		ServiceName:    serviceName,
		Tokens:         tokens,
		Policy:         policy,
		Metrics:        metrics.NewHTTP("lucent"),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, server, logger)
}

func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Lucent API listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Lucent API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down Lucent API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildOrderRepository(db *gorm.DB) ordersports.Repository {
	if db == nil {
		return ordersmemory.NewRepository()
	}
	return orderspostgres.NewRepository(db)
}

func buildIdentityStores(db *gorm.DB, redisClient *goredis.Client) (identityports.UserRepository, identityports.VerificationStore) {
	var users identityports.UserRepository = identitymemory.NewUserRepository()
	var verifications identityports.VerificationStore = identitymemory.NewVerificationStore()
	if db != nil {
		users = identitypostgres.NewUserRepository(db)
		verifications = identitypostgres.NewVerificationStore(db)
	}
	if redisClient != nil {
		verifications = identityredis.NewVerificationStore(redisClient)
	}
	return users, verifications
}

// BuildAuditSink fans audit entries out to the log, the audit table and Kafka, whichever are available.
// The worker uses it as well so both processes publish to the same topic.
func BuildAuditSink(cfg Config, db *gorm.DB, logger *slog.Logger) (*ordersaudit.MultiSink, func()) {
	sinks := []ordersports.AuditSink{ordersaudit.NewLogSink(logger)}
	if db != nil {
		sinks = append(sinks, ordersaudit.NewGormSink(db))
	}
	cleanup := func() {}
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, audit events stay local")
		return ordersaudit.NewMultiSink(logger, sinks...), cleanup
	}
	writer, err := platformkafka.NewWriter(platformkafka.WriterConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaAuditTopic})
	if err != nil {
		logger.Warn("failed to configure kafka audit writer", slog.String("error", err.Error()))
		return ordersaudit.NewMultiSink(logger, sinks...), cleanup
	}
	sinks = append(sinks, ordersaudit.NewKafkaSink(writer))
	logger.Info("audit events published to kafka", slog.String("topic", cfg.KafkaAuditTopic))
	return ordersaudit.NewMultiSink(logger, sinks...), func() { closeWriter(writer, logger) }
}

func closeWriter(writer *kafkago.Writer, logger *slog.Logger) {
	if err := writer.Close(); err != nil {
		logger.Warn("failed to flush kafka audit writer", slog.String("error", err.Error()))
	}
}

func buildDownloadLinker(cfg Config, logger *slog.Logger) ordersports.DownloadLinker {
	if cfg.DownloadBaseURL == "" {
		logger.Warn("DOWNLOAD_BASE_URL not set, digital downloads disabled")
		return nil
	}
	var opts []downloads.Option
	if cfg.DownloadTTL > 0 {
		opts = append(opts, downloads.WithTTL(cfg.DownloadTTL))
	}
	linker, err := downloads.NewSignedURLLinker(cfg.DownloadBaseURL, cfg.DownloadSecret, opts...)
	if err != nil {
		logger.Warn("invalid download settings, digital downloads disabled", slog.String("error", err.Error()))
		return nil
	}
	return linker
}

func connectRedis(ctx context.Context, addr string, logger *slog.Logger) *goredis.Client {
	if addr == "" {
		logger.Warn("REDIS_ADDR not set, verification codes kept outside redis")
		return nil
	}
	redisClient, err := platformredis.Connect(ctx, addr)
	if err != nil {
		logger.Warn("failed to connect to redis", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("redis connection established", slog.String("addr", addr))
	return redisClient
}

func pingPostgres(db *gorm.DB) lucentserver.HealthCheck {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer("temporal-client"),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}
