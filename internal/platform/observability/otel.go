package observability

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Instruments bundles the runtime-wide observability dependencies.
type Instruments struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Settings names the process and tunes its telemetry.
type Settings struct {
	ServiceName  string
	Environment  string
	LogLevel     string
	OTLPEndpoint string
	// OTLPInsecure disables TLS towards the collector.
	OTLPInsecure bool
}

// SettingsFromEnv reads the standard OTEL_* variables plus LOG_LEVEL and ENVIRONMENT.
func SettingsFromEnv(serviceName string) Settings {
	return Settings{
		ServiceName:  serviceName,
		Environment:  envOrDefault("ENVIRONMENT", "local"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		OTLPEndpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTLPInsecure: os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") != "0",
	}
}

// Init installs the JSON slog logger and the OpenTelemetry providers for the process.
// The returned shutdown flushes pending spans and metrics.
func Init(ctx context.Context, settings Settings) (*Instruments, func(context.Context) error, error) {
	logger := newLogger(settings.LogLevel)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", settings.ServiceName),
			attribute.String("service.namespace", "lucent"),
			attribute.String("deployment.environment", settings.Environment),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	spanExporter, err := newSpanExporter(ctx, settings, logger)
	if err != nil {
		return nil, nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(spanExporter),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewManualReader()),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		return errors.Join(meterProvider.Shutdown(ctx), tracerProvider.Shutdown(ctx))
	}
	return &Instruments{
		Logger:         logger.With(slog.String("service", settings.ServiceName)),
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
	}, shutdown, nil
}

// Tracer returns a named tracer from the configured provider.
func (i *Instruments) Tracer(name string) trace.Tracer {
	if i == nil || i.TracerProvider == nil {
		return otel.Tracer(name)
	}
	return i.TracerProvider.Tracer(name)
}

// Meter returns a named meter from the configured provider.
func (i *Instruments) Meter(name string) metric.Meter {
	if i == nil || i.MeterProvider == nil {
		return metricnoop.NewMeterProvider().Meter(name)
	}
	return i.MeterProvider.Meter(name)
}

// ParseLevel maps debug, info, warn and error; anything else is info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(level), AddSource: true})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func newSpanExporter(ctx context.Context, settings Settings, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	var opts []otlptracehttp.Option
	if settings.OTLPEndpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(settings.OTLPEndpoint))
	}
	if settings.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err == nil {
		return exporter, nil
	}
	logger.Warn("failed to initialize OTLP trace exporter, falling back to stdout", slog.String("error", err.Error()))
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
