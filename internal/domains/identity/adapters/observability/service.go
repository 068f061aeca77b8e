package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
)

const tracerName = "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/observability/service"

// Service decorates the identity service with tracing, logging, and metrics.
// Codes and tokens never reach spans or logs.
type Service struct {
	inner    ports.Service
	tracer   trace.Tracer
	logger   *slog.Logger
	requests metric.Int64Counter
	failures metric.Int64Counter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		if m == nil {
			return
		}
		s.requests, _ = m.Int64Counter("identity.service.codes_requested", metric.WithDescription("Number of verification codes issued"))
		s.failures, _ = m.Int64Counter("identity.service.verification_failures", metric.WithDescription("Number of rejected verification attempts"))
	}
}

func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) RequestCode(ctx context.Context, email, purpose string) error {
	ctx, span := s.tracer.Start(ctx, "IdentityService.RequestCode",
		trace.WithAttributes(attribute.String("verification.purpose", purpose)))
	defer span.End()

	if err := s.inner.RequestCode(ctx, email, purpose); err != nil {
		if errors.Is(err, domain.ErrCooldown) {
			s.logger.LogAttrs(ctx, slog.LevelInfo, "verification code throttled", slog.String("purpose", purpose))
			return err
		}
		return s.handleError(ctx, span, err, "failed to issue verification code", slog.String("purpose", purpose))
	}
	if s.requests != nil {
		s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("purpose", purpose)))
	}
	return nil
}

func (s *Service) VerifyCode(ctx context.Context, email, purpose, code string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "IdentityService.VerifyCode",
		trace.WithAttributes(attribute.String("verification.purpose", purpose)))
	defer span.End()

	token, err := s.inner.VerifyCode(ctx, email, purpose, code)
	if err != nil {
		if s.failures != nil {
			s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("purpose", purpose)))
		}
		return "", s.handleError(ctx, span, err, "verification failed", slog.String("purpose", purpose))
	}
	return token, nil
}

func (s *Service) ExchangeToken(ctx context.Context, token, name string) (*ports.Session, error) {
	ctx, span := s.tracer.Start(ctx, "IdentityService.ExchangeToken")
	defer span.End()

	session, err := s.inner.ExchangeToken(ctx, token, name)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "token exchange failed")
	}
	span.SetAttributes(attribute.String("user.id", session.User.ID))
	s.logger.LogAttrs(ctx, slog.LevelInfo, "session issued",
		slog.String("user.id", session.User.ID), slog.String("role", string(session.User.Role)))
	return session, nil
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "IdentityService.CurrentUser",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	user, err := s.inner.CurrentUser(ctx, userID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load current user", slog.String("user.id", userID))
	}
	return user, nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	return err
}

var _ ports.Service = (*Service)(nil)
