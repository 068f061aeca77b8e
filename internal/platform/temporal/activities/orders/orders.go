package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	types "github.com/KwakOri/lucent-sub001/internal/domains/orders/application/types"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

const (
	// UpdateOrderStatusActivityName applies one status change, cascade included.
	UpdateOrderStatusActivityName = "orders.activities.UpdateOrderStatus"

	// Application error types that are never retried.
	ErrTypeNotFound      = "OrderNotFound"
	ErrTypeInvalidStatus = "InvalidOrderStatus"
)

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ports.Service
}

// NewActivities wires the orders service into the Temporal activities bundle.
func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// UpdateOrderStatus applies the status to a single order. Retrying a status write is safe: it is idempotent.
func (a *Activities) UpdateOrderStatus(ctx context.Context, input types.UpdateOrderStatusInput) (*domain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order status activity not initialized", "orderId", input.OrderID)
		return nil, errors.New("order status activity not initialized")
	}
	logger.Info("UpdateOrderStatus activity started", "orderId", input.OrderID, "status", input.Status)
	order, err := a.service.UpdateOrderStatus(ctx, input)
	switch {
	case err == nil:
	case errors.Is(err, ports.ErrNotFound):
		logger.Warn("UpdateOrderStatus order missing", "orderId", input.OrderID)
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err)
	case errors.Is(err, domain.ErrInvalidStatus):
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidStatus, err)
	default:
		logger.Error("UpdateOrderStatus activity failed", "orderId", input.OrderID, "error", err)
		return nil, err
	}
	logger.Info("UpdateOrderStatus activity completed", "orderId", order.ID, "status", string(order.Status))
	return order, nil
}
