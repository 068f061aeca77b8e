package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	types "github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

const tracerName = "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) UpdateOrderStatus(ctx context.Context, input types.UpdateOrderStatusInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.UpdateOrderStatus",
		trace.WithAttributes(attribute.String("order.id", input.OrderID), attribute.String("order.status", input.Status)))
	defer span.End()

	s.logInfo(ctx, "updating order status",
		slog.String("order.id", input.OrderID), slog.String("status", input.Status), slog.String("actor.id", input.ActorID))
	result, err := s.inner.UpdateOrderStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status", slog.String("order.id", input.OrderID))
	}
	s.metrics.recordStatusUpdate(ctx, "order", string(result.Status))
	s.logInfo(ctx, "order status updated", slog.String("order.id", result.ID), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) UpdateItemStatus(ctx context.Context, input types.UpdateItemStatusInput) (*domain.OrderItem, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.UpdateItemStatus",
		trace.WithAttributes(attribute.String("order_item.id", input.ItemID), attribute.String("order_item.status", input.Status)))
	defer span.End()

	s.logInfo(ctx, "updating item status", slog.String("order_item.id", input.ItemID), slog.String("status", input.Status))
	result, err := s.inner.UpdateItemStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update item status", slog.String("order_item.id", input.ItemID))
	}
	s.metrics.recordStatusUpdate(ctx, "item", string(result.Status))
	return result, nil
}

func (s *Service) UpdateItemsStatus(ctx context.Context, input types.UpdateItemsStatusInput) (*bulk.Result[*domain.OrderItem], error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.UpdateItemsStatus",
		trace.WithAttributes(
			attribute.String("order.id", input.OrderID),
			attribute.Int("bulk.requested", len(input.ItemIDs)),
			attribute.String("order_item.status", input.Status),
		))
	defer span.End()

	s.logInfo(ctx, "bulk updating item status", slog.String("order.id", input.OrderID), slog.Int("count", len(input.ItemIDs)))
	result, err := s.inner.UpdateItemsStatus(ctx, input)
	if result != nil {
		s.recordBulk(ctx, span, "item", len(result.Updated), result.FailedIDs())
	}
	if err != nil {
		return result, s.handleError(ctx, span, err, "bulk item status update failed", slog.String("order.id", input.OrderID))
	}
	return result, nil
}

func (s *Service) BulkUpdateOrderStatus(ctx context.Context, input types.BulkUpdateOrderStatusInput) (*bulk.Result[*domain.Order], error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.BulkUpdateOrderStatus",
		trace.WithAttributes(attribute.Int("bulk.requested", len(input.OrderIDs)), attribute.String("order.status", input.Status)))
	defer span.End()

	s.logInfo(ctx, "bulk updating order status", slog.Int("count", len(input.OrderIDs)), slog.String("status", input.Status))
	result, err := s.inner.BulkUpdateOrderStatus(ctx, input)
	if result != nil {
		s.recordBulk(ctx, span, "order", len(result.Updated), result.FailedIDs())
	}
	if err != nil {
		return result, s.handleError(ctx, span, err, "bulk order status update failed")
	}
	return result, nil
}

func (s *Service) HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.HasCompletedPurchase",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("product.id", productID)))
	defer span.End()

	ok, err := s.inner.HasCompletedPurchase(ctx, userID, productID)
	if err != nil {
		return false, s.handleError(ctx, span, err, "failed to check entitlement", slog.String("product.id", productID))
	}
	span.SetAttributes(attribute.Bool("entitled", ok))
	return ok, nil
}

func (s *Service) GetShipmentTracking(ctx context.Context, input types.ShipmentTrackingInput) (*domain.ShipmentTracking, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.GetShipmentTracking", trace.WithAttributes(attribute.String("order_item.id", input.ItemID)))
	defer span.End()

	result, err := s.inner.GetShipmentTracking(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load shipment tracking", slog.String("order_item.id", input.ItemID))
	}
	span.SetAttributes(attribute.Bool("tracking.present", result != nil))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, input types.GetOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.GetOrder", trace.WithAttributes(attribute.String("order.id", input.OrderID)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", input.OrderID))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, input types.ListOrdersInput) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ListOrders", trace.WithAttributes(attribute.String("order.status", input.Status)))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) UpdateTracking(ctx context.Context, input types.UpdateTrackingInput) (*domain.OrderItem, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.UpdateTracking",
		trace.WithAttributes(attribute.String("order.id", input.OrderID), attribute.String("order_item.id", input.ItemID)))
	defer span.End()

	s.logInfo(ctx, "attaching tracking", slog.String("order_item.id", input.ItemID), slog.String("carrier", input.Carrier))
	result, err := s.inner.UpdateTracking(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to attach tracking", slog.String("order_item.id", input.ItemID))
	}
	return result, nil
}

func (s *Service) IssueDownload(ctx context.Context, input types.IssueDownloadInput) (*ports.DownloadReference, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.IssueDownload",
		trace.WithAttributes(attribute.String("order.id", input.OrderID), attribute.String("order_item.id", input.ItemID)))
	defer span.End()

	result, err := s.inner.IssueDownload(ctx, input)
	if err != nil {
		s.metrics.recordDownloadDenied(ctx)
		return nil, s.handleError(ctx, span, err, "download not issued",
			slog.String("order.id", input.OrderID), slog.String("order_item.id", input.ItemID), slog.String("user.id", input.UserID))
	}
	s.logInfo(ctx, "download issued", slog.String("order_item.id", input.ItemID), slog.Time("expires_at", result.ExpiresAt))
	return result, nil
}

func (s *Service) recordBulk(ctx context.Context, span trace.Span, kind string, updated int, failed []string) {
	span.SetAttributes(attribute.Int("bulk.updated", updated), attribute.Int("bulk.failed", len(failed)))
	s.metrics.recordBulkFailures(ctx, kind, len(failed))
	if len(failed) > 0 {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "bulk update partially failed",
			slog.String("kind", kind), slog.Int("updated", updated), slog.Any("failed_ids", failed))
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	statusUpdates   metric.Int64Counter
	bulkFailures    metric.Int64Counter
	downloadsDenied metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	statusUpdates, _ := m.Int64Counter("orders.service.status_updates", metric.WithDescription("Number of applied status updates"))
	bulkFailures, _ := m.Int64Counter("orders.service.bulk_failures", metric.WithDescription("Number of failed units in bulk updates"))
	downloadsDenied, _ := m.Int64Counter("orders.service.downloads_denied", metric.WithDescription("Number of refused download requests"))
	return serviceMetrics{statusUpdates: statusUpdates, bulkFailures: bulkFailures, downloadsDenied: downloadsDenied}
}

func (m serviceMetrics) recordStatusUpdate(ctx context.Context, kind, status string) {
	if m.statusUpdates != nil {
		m.statusUpdates.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind), attribute.String("status", status)))
	}
}

func (m serviceMetrics) recordBulkFailures(ctx context.Context, kind string, n int) {
	if m.bulkFailures != nil && n > 0 {
		m.bulkFailures.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m serviceMetrics) recordDownloadDenied(ctx context.Context) {
	if m.downloadsDenied != nil {
		m.downloadsDenied.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
