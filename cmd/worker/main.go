package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"gorm.io/gorm"

	"github.com/KwakOri/lucent-sub001/internal/app/api"
	ordersmemory "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/memory"
	ordersobs "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/KwakOri/lucent-sub001/internal/domains/orders/application"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
	platformkafka "github.com/KwakOri/lucent-sub001/internal/platform/kafka"
	platformobservability "github.com/KwakOri/lucent-sub001/internal/platform/observability"
	platformpostgres "github.com/KwakOri/lucent-sub001/internal/platform/postgres"
	orderactivities "github.com/KwakOri/lucent-sub001/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/KwakOri/lucent-sub001/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "lucent-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.SettingsFromEnv(serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectOptional(ctx, os.Getenv("POSTGRES_DSN"), logger)
	defer cleanupDB()
	auditSink, closeAudit := api.BuildAuditSink(api.Config{
		KafkaBrokers:    platformkafka.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaAuditTopic: envOrDefault("KAFKA_AUDIT_TOPIC", api.DefaultAuditTopic),
	}, db, logger)
	defer closeAudit()
	orderService := ordersobs.New(
		ordersapp.NewService(buildOrderRepository(db), ordersapp.WithAuditSink(auditSink), ordersapp.WithLogger(logger)),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	activities := orderactivities.NewActivities(orderService)

	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")})
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderStatusTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.BulkStatusWorkflow, workflow.RegisterOptions{Name: orderworkflows.BulkStatusWorkflowName})
	w.RegisterActivityWithOptions(activities.UpdateOrderStatus, activity.RegisterOptions{Name: orderactivities.UpdateOrderStatusActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderStatusTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

// The worker shares the API's database; without one it only makes sense for local smoke runs.
func buildOrderRepository(db *gorm.DB) ports.Repository {
	if db == nil {
		return ordersmemory.NewRepository()
	}
	return orderspostgres.NewRepository(db)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
