package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	types "github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
	"github.com/KwakOri/lucent-sub001/internal/shared/bulk"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service orchestrates the order lifecycle use cases.
type Service struct {
	repo        ports.Repository
	validator   Validator
	auditSink   ports.AuditSink
	linker      ports.DownloadLinker
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
}

// Option customises the service.
type Option func(*Service)

// WithAuditSink routes audit entries to sink.
func WithAuditSink(sink ports.AuditSink) Option {
	return func(s *Service) {
		if sink != nil {
			s.auditSink = sink
		}
	}
}

// WithDownloadLinker enables IssueDownload.
func WithDownloadLinker(linker ports.DownloadLinker) Option {
	return func(s *Service) {
		s.linker = linker
	}
}

// WithLogger overrides the logger used for audit failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBulkConcurrency bounds how many units a bulk update applies at once.
func WithBulkConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the order service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		auditSink:   ports.NoopAuditSink,
		logger:      slog.Default(),
		concurrency: bulk.DefaultConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateOrderStatus sets an order's status. DONE also completes every outstanding item in the same write.
// Re-applying the current status is accepted and audited again.
func (s *Service) UpdateOrderStatus(ctx context.Context, input types.UpdateOrderStatusInput) (*domain.Order, error) {
	status, err := s.validator.OrderStatus(input.Status)
	if err != nil {
		return nil, mapError(err)
	}
	if strings.TrimSpace(input.OrderID) == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	order, err := s.repo.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	from := order.Status
	now := s.now()
	cascaded, err := order.ApplyStatus(status, input.ActorID, now)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.SaveOrderStatus(ctx, order, cascaded)
	if err != nil {
		return nil, mapError(err)
	}
	s.audit(ctx, domain.OrderStatusChanged{
		BaseEvent:       domain.BaseEvent{Timestamp: now},
		OrderID:         saved.ID,
		ActorID:         input.ActorID,
		FromStatus:      from,
		ToStatus:        status,
		CascadedItemIDs: cascaded,
	})
	if !input.IncludeItems {
		saved.Items = nil
	}
	return saved, nil
}

// UpdateItemStatus sets one item's status. The parent order is never touched.
func (s *Service) UpdateItemStatus(ctx context.Context, input types.UpdateItemStatusInput) (*domain.OrderItem, error) {
	status, err := s.validator.ItemStatus(input.Status)
	if err != nil {
		return nil, mapError(err)
	}
	item, err := s.applyItemStatus(ctx, input.OrderID, input.ItemID, status, input.ActorID)
	if err != nil {
		return nil, mapError(err)
	}
	return item, nil
}

// UpdateItemsStatus applies one status to several items of an order. Each item is independent:
// failures are collected and the rest still apply. ErrAllFailed accompanies the result when nothing applied.
func (s *Service) UpdateItemsStatus(ctx context.Context, input types.UpdateItemsStatusInput) (*bulk.Result[*domain.OrderItem], error) {
	status, err := s.validator.ItemStatus(input.Status)
	if err != nil {
		return nil, mapError(err)
	}
	ids := bulk.Normalize(input.ItemIDs)
	if len(ids) == 0 {
		return nil, mapError(ErrEmptyTargets)
	}
	if input.OrderID != "" {
		if _, err := s.repo.GetOrder(ctx, input.OrderID); err != nil {
			return nil, mapError(err)
		}
	}
	result := bulk.ApplyEach(ctx, ids, s.concurrency, func(ctx context.Context, id string) (*domain.OrderItem, error) {
		return s.applyItemStatus(ctx, input.OrderID, id, status, input.ActorID)
	})
	return finishBulk(result)
}

// BulkUpdateOrderStatus applies one status to several orders, each with the full single-order semantics.
func (s *Service) BulkUpdateOrderStatus(ctx context.Context, input types.BulkUpdateOrderStatusInput) (*bulk.Result[*domain.Order], error) {
	if _, err := s.validator.OrderStatus(input.Status); err != nil {
		return nil, mapError(err)
	}
	ids := bulk.Normalize(input.OrderIDs)
	if len(ids) == 0 {
		return nil, mapError(ErrEmptyTargets)
	}
	result := bulk.ApplyEach(ctx, ids, s.concurrency, func(ctx context.Context, id string) (*domain.Order, error) {
		return s.UpdateOrderStatus(ctx, types.UpdateOrderStatusInput{
			OrderID: id,
			Status:  input.Status,
			ActorID: input.ActorID,
		})
	})
	return finishBulk(result)
}

// HasCompletedPurchase reports whether the user owns a DONE order holding a COMPLETED item of the product.
func (s *Service) HasCompletedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(productID) == "" {
		return false, nil
	}
	ok, err := s.repo.HasCompletedPurchase(ctx, userID, productID)
	if err != nil {
		return false, mapError(err)
	}
	return ok, nil
}

// GetShipmentTracking returns the carrier view of an item owned by the requester.
// A nil view with a nil error means the item has no tracking yet. Items of other users are reported as not found.
func (s *Service) GetShipmentTracking(ctx context.Context, input types.ShipmentTrackingInput) (*domain.ShipmentTracking, error) {
	item, err := s.repo.GetItem(ctx, input.ItemID)
	if err != nil {
		return nil, mapError(err)
	}
	if input.OrderID != "" && item.OrderID != input.OrderID {
		return nil, ports.ErrNotFound
	}
	order, err := s.repo.GetOrder(ctx, item.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	if !order.OwnedBy(input.UserID) {
		return nil, ports.ErrNotFound
	}
	return item.Tracking(), nil
}

// GetOrder loads an order for its owner or an administrator.
func (s *Service) GetOrder(ctx context.Context, input types.GetOrderInput) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	if !input.Requester.Admin && !order.OwnedBy(input.Requester.UserID) {
		return nil, ports.ErrNotFound
	}
	return order, nil
}

// ListOrders pages through orders, newest first.
func (s *Service) ListOrders(ctx context.Context, input types.ListOrdersInput) ([]*domain.Order, error) {
	filter := ports.ListFilter{UserID: input.UserID, Limit: input.Limit, Offset: input.Offset}
	if input.Status != "" {
		status, err := s.validator.OrderStatus(input.Status)
		if err != nil {
			return nil, mapError(err)
		}
		filter.Status = &status
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	orders, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// UpdateTracking records the carrier reference for an item of the order.
func (s *Service) UpdateTracking(ctx context.Context, input types.UpdateTrackingInput) (*domain.OrderItem, error) {
	order, err := s.repo.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	item, ok := order.Item(input.ItemID)
	if !ok {
		return nil, ports.ErrNotFound
	}
	now := s.now()
	if err := item.AttachTracking(input.Carrier, input.TrackingNumber, now); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.SaveItem(ctx, item)
	if err != nil {
		return nil, mapError(err)
	}
	s.audit(ctx, domain.TrackingAttached{
		BaseEvent:      domain.BaseEvent{Timestamp: now},
		OrderID:        order.ID,
		ItemID:         saved.ID,
		ActorID:        input.ActorID,
		Carrier:        saved.Carrier,
		TrackingNumber: saved.TrackingNumber,
	})
	return saved, nil
}

// IssueDownload hands out a time-limited link to a purchased digital item.
// The order must belong to the user and the product must be entitled; denials are audited.
func (s *Service) IssueDownload(ctx context.Context, input types.IssueDownloadInput) (*ports.DownloadReference, error) {
	order, err := s.repo.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	if !order.OwnedBy(input.UserID) {
		return nil, ports.ErrNotFound
	}
	item, ok := order.Item(input.ItemID)
	if !ok {
		return nil, ports.ErrNotFound
	}
	if !item.IsDigital() {
		return nil, mapError(ErrNotDownloadable)
	}
	entitled, err := s.repo.HasCompletedPurchase(ctx, input.UserID, item.ProductID)
	if err != nil {
		return nil, mapError(err)
	}
	if !entitled {
		s.audit(ctx, domain.DownloadDenied{
			BaseEvent: domain.BaseEvent{Timestamp: s.now()},
			OrderID:   order.ID,
			ItemID:    item.ID,
			ProductID: item.ProductID,
			UserID:    input.UserID,
			Reason:    "purchase not completed",
		})
		return nil, ErrNotEntitled
	}
	if s.linker == nil {
		return nil, ErrDownloadsUnavailable
	}
	return s.linker.Link(ctx, ports.DownloadRequest{
		UserID:    input.UserID,
		OrderID:   order.ID,
		ItemID:    item.ID,
		ProductID: item.ProductID,
	})
}

func (s *Service) applyItemStatus(ctx context.Context, orderID, itemID string, status domain.ItemStatus, actorID string) (*domain.OrderItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if orderID != "" && item.OrderID != orderID {
		return nil, ports.ErrNotFound
	}
	from := item.Status
	now := s.now()
	if err := item.ApplyStatus(status, now); err != nil {
		return nil, err
	}
	saved, err := s.repo.SaveItem(ctx, item)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, domain.ItemStatusChanged{
		BaseEvent:  domain.BaseEvent{Timestamp: now},
		OrderID:    saved.OrderID,
		ItemID:     saved.ID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   status,
	})
	return saved, nil
}

func finishBulk[T any](result *bulk.Result[T]) (*bulk.Result[T], error) {
	for i := range result.Failures {
		result.Failures[i].Message = failureMessage(result.Failures[i].Err)
	}
	if result.AllFailed() {
		return result, ErrAllFailed
	}
	return result, nil
}

var _ ports.Service = (*Service)(nil)
